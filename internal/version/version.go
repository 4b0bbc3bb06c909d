package version

var (
	// PackageName is the name of this tool.
	PackageName = "gpurun"

	// Version is set at build time via ldflags.
	Version = "undefined"

	// CommitHash is set at build time via ldflags.
	CommitHash = "undefined"

	// BuildDate is set at build time via ldflags.
	BuildDate = "undefined"
)
