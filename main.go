// Package main provides the entry point for the Feature Info Service.
//
// The service resolves the semantic class of an asset IRI across the graph-store
// namespaces of a stack, then returns the class-specific metadata and recent
// time-series readings of the asset as one response.
//
// Usage:
//
//	featureinfo serve [flags]
//
// Environment Variables:
//   - FIA_CONFIG_FILE: Path of the query configuration document
//   - FIA_PORT: HTTP server port (default: 8080)
//   - FIA_AUTH_MODE: none, apikey or jwt
//
// Example:
//
//	export FIA_CONFIG_FILE=/app/config/fia-config.json
//	featureinfo serve --stack-dir /inter/endpoints
package main

import (
	"os"

	"evalgo.org/featureinfo/cmd"
)

// main is the application entry point that delegates to the cobra command structure.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
