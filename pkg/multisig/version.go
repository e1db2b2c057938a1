package multisig

// Build metadata, populated via ldflags:
//
//	go build -ldflags "-X github.com/coinbase/cb-multisig-go/pkg/multisig.Version=v1.2.3"
var (
	Version = "v0.0.0-in-progress"
	Commit  = "unknown"
)

// ModuleVersion returns the semantic version populated at build time. In
// development it defaults to v0.0.0-in-progress.
func ModuleVersion() string {
	return Version
}

// ModuleCommit returns the source commit populated at build time.
func ModuleCommit() string {
	return Commit
}
