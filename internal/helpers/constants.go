// Package helpers provides utility functions and constants for the feature info service.
package helpers

import "time"

// Query template placeholders
const (
	PlaceholderIRI   = "[IRI]"   // Replaced by the requested identifier, wrapped in angle brackets
	PlaceholderOntop = "[ONTOP]" // Replaced by the virtual-mapper endpoint URL
)

// Environment variables
const (
	EnvConfigFile = "FIA_CONFIG_FILE" // Location of the feature info configuration document
	EnvPrefix     = "FIA"             // Prefix for viper environment lookups
)

// Well-known settings in the configuration document
const (
	SettingHours        = "hours"
	SettingDatabaseName = "database_name"
)

// Defaults
const (
	DefaultRootNamespace    = "kb"
	DefaultHours            = 24
	DefaultDatabaseName     = "postgres"
	DefaultDiscoveryTimeout = 30 * time.Second
)

// SPARQL content types
const (
	MediaSPARQLResultsJSON = "application/sparql-results+json"
)

// Variables the time-series discovery query may bind
var (
	StreamVariables = []string{"measurement", "stream", "dataIRI"}
	UnitVariables   = []string{"unit", "units"}
)
