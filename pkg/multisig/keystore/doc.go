// Package keystore resolves key ids to the weighted committee snapshots that
// signing sessions freeze at creation.
//
// The Store interface is the read side consumed by the coordinator. Writes
// belong to the key-management collaborator and live on the concrete types:
// Memory for tests and single-process deployments, and the sqlite
// subpackage for persistence. Snapshots are immutable once stored; a key
// rotation registers a new key and activates it.
package keystore
