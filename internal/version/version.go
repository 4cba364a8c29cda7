package version

// Version is the archiver version, set at build time:
// -ldflags "-X github.com/rxtech-lab/argo-archiver/internal/version.Version=1.2.3"
var Version = "main"

// GetVersion returns the archiver version.
func GetVersion() string {
	return Version
}
