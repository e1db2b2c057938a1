// Package internalcheck holds source policy tests for the multisig packages.
//
// The tests load every package under pkg/multisig with go/packages and fail
// on constructs that could leak or mishandle signature material: %x
// formatting, == on byte slices and byte slices passed straight to the
// structured logger.
//
// # Internal Use Only
//
// The package exports nothing and should not be imported.
package internalcheck
