package config

// Version is the cardledger binary version.
// Set at build time via: -ldflags "-X github.com/cardledger/cardledger/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
