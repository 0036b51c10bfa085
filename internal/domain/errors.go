// Package domain defines the core types and error types of the feature info service.
package domain

import (
	"errors"
	"fmt"
)

// ErrTimeseriesUnavailable is returned when no relational store endpoint has been discovered.
// It is not fatal: callers return metadata without a time section.
var ErrTimeseriesUnavailable = errors.New("time-series store unavailable")

// ConfigError indicates the configuration document is missing or malformed
type ConfigError struct {
	Source  string // Path or name of the document
	Message string // Human-readable error message
	Cause   error  // Underlying error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration %s: %s (%v)", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration %s: %s", e.Source, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// DiscoveryError indicates endpoint discovery could not complete.
// Fatal is set when the canonical graph-store namespace could not be located.
type DiscoveryError struct {
	Kind    Kind
	Message string
	Fatal   bool
	Cause   error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s discovery failed: %s (%v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s discovery failed: %s", e.Kind, e.Message)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// NotConfiguredError indicates a class was resolved but has no query templates
type NotConfiguredError struct {
	Class string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("no queries configured for class: %s", e.Class)
}

// QueryError is a query execution failure against one endpoint or a whole stage
type QueryError struct {
	Endpoint string // Endpoint ID, empty when the whole stage failed
	Message  string
	Cause    error
}

func (e *QueryError) Error() string {
	msg := e.Message
	if e.Endpoint != "" {
		msg = fmt.Sprintf("endpoint %s: %s", e.Endpoint, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("query failed: %s (%v)", msg, e.Cause)
	}
	return fmt.Sprintf("query failed: %s", msg)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// TimeseriesStoreError indicates the relational store was unreachable or a read failed
type TimeseriesStoreError struct {
	StreamID string
	Cause    error
}

func (e *TimeseriesStoreError) Error() string {
	if e.StreamID != "" {
		return fmt.Sprintf("time-series store failed for stream %s: %v", e.StreamID, e.Cause)
	}
	return fmt.Sprintf("time-series store failed: %v", e.Cause)
}

func (e *TimeseriesStoreError) Unwrap() error {
	return e.Cause
}

// ValidationError indicates input validation failed
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// NewConfigError creates a new ConfigError
func NewConfigError(source, message string, cause error) *ConfigError {
	return &ConfigError{
		Source:  source,
		Message: message,
		Cause:   cause,
	}
}

// NewDiscoveryError creates a new DiscoveryError
func NewDiscoveryError(kind Kind, message string, fatal bool, cause error) *DiscoveryError {
	return &DiscoveryError{
		Kind:    kind,
		Message: message,
		Fatal:   fatal,
		Cause:   cause,
	}
}

// NewNotConfiguredError creates a new NotConfiguredError
func NewNotConfiguredError(class string) *NotConfiguredError {
	return &NotConfiguredError{Class: class}
}

// NewQueryError creates a new QueryError
func NewQueryError(endpoint, message string, cause error) *QueryError {
	return &QueryError{
		Endpoint: endpoint,
		Message:  message,
		Cause:    cause,
	}
}

// NewTimeseriesStoreError creates a new TimeseriesStoreError
func NewTimeseriesStoreError(streamID string, cause error) *TimeseriesStoreError {
	return &TimeseriesStoreError{
		StreamID: streamID,
		Cause:    cause,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
