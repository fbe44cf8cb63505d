package cmd

// Version is the application version.
// Intended to be set at build time with ldflags:
//
//	go build -ldflags "-X github.com/xkilldash9x/marionette/cmd.Version=1.0.0"
var Version = "0.1.0-dev"
