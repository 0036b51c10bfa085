// Package helpers provides validation utilities.
package helpers

import (
	"regexp"
	"strings"
	"unicode"

	"evalgo.org/featureinfo/internal/domain"
)

// sqlIdentifier matches an optionally schema-qualified, unquoted SQL identifier
var sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateIRI checks that an identifier can be bound into a SPARQL query as an IRI reference.
func ValidateIRI(field, iri string) error {
	if strings.TrimSpace(iri) == "" {
		return domain.NewValidationError(field, "must not be empty")
	}
	for _, r := range iri {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return domain.NewValidationError(field, "must not contain whitespace or control characters")
		}
		switch r {
		case '<', '>', '"', '{', '}', '|', '^', '`', '\\':
			return domain.NewValidationError(field, "contains a character not permitted in an IRI")
		}
	}
	return nil
}

// ValidateSQLIdentifier checks a table name taken from configuration before it is used in SQL text.
func ValidateSQLIdentifier(field, name string) error {
	if !sqlIdentifier.MatchString(name) {
		return domain.NewValidationError(field, "must be a plain SQL identifier")
	}
	return nil
}

// BindTemplate substitutes the identifier and mapping endpoint into a query template.
// The identifier must have passed ValidateIRI.
func BindTemplate(template, iri, mappingURL string) string {
	query := strings.ReplaceAll(template, PlaceholderIRI, "<"+iri+">")
	if mappingURL != "" {
		query = strings.ReplaceAll(query, PlaceholderOntop, "<"+mappingURL+">")
	}
	return query
}
