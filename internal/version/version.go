package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/mkulik-rh/rpm/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/mkulik-rh/rpm/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/mkulik-rh/rpm/internal/version.Date={{.Date}}
)
