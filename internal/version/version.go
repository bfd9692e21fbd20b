package version

// Version is overridden at build time with -ldflags "-X netinventory/internal/version.Version=..."
var Version = "dev"
