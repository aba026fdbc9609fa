package buildinfo

// Version is the semantic version of the binary. Overridden at build time
// via -ldflags "-X github.com/skillcompass/skillcompass-go/internal/buildinfo.Version=...".
var Version = "0.3.0-dev"
