package version

// Build holds the build identifier, injected via -ldflags "-X watson-dash/pkg/version.Build=...". Default "dev".
var Build = "dev"
