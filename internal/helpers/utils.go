// Package helpers provides utility functions for the feature info service.
package helpers

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// namespacePattern extracts the namespace name from a graph-store SPARQL URL
// such as http://host:8080/blazegraph/namespace/kb/sparql.
var namespacePattern = regexp.MustCompile(`/namespace/([^/]+)/sparql/?$`)

// NormalizeURL removes trailing slashes from URLs to prevent double-slash issues
func NormalizeURL(urlStr string) string {
	return strings.TrimRight(urlStr, "/")
}

// URL2ServiceRobust parses a URL string and extracts the hostname.
// Adds scheme if missing to help url.Parse work correctly.
func URL2ServiceRobust(urlStr string) (string, error) {
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		urlStr = "http://" + urlStr
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	return parsedURL.Hostname(), nil
}

// NamespaceFromURL returns the namespace name of a graph-store SPARQL endpoint URL.
func NamespaceFromURL(endpointURL string) (string, bool) {
	m := namespacePattern.FindStringSubmatch(endpointURL)
	if m == nil {
		return "", false
	}
	name, err := url.PathUnescape(m[1])
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// FindField looks up a result binding by key as given, lower case or upper case.
func FindField[V any](key string, entry map[string]V) (V, bool) {
	if v, ok := entry[key]; ok {
		return v, true
	}
	if v, ok := entry[strings.ToLower(key)]; ok {
		return v, true
	}
	if v, ok := entry[strings.ToUpper(key)]; ok {
		return v, true
	}
	var zero V
	return zero, false
}

// FindFieldFold looks up a binding key ignoring case entirely.
func FindFieldFold[V any](key string, entry map[string]V) (V, bool) {
	if v, ok := FindField(key, entry); ok {
		return v, true
	}
	for k, v := range entry {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// DebugHTTPTransport wraps an http.RoundTripper to log request/response details
type DebugHTTPTransport struct {
	Transport http.RoundTripper
	Logger    logrus.FieldLogger
}

// RoundTrip implements http.RoundTripper interface with debugging
func (d *DebugHTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := d.Logger.WithFields(logrus.Fields{"method": req.Method, "url": req.URL.String()})
	log.Debug("HTTP request")

	resp, err := d.Transport.RoundTrip(req)
	if err != nil {
		log.WithError(err).Debug("HTTP request failed")
		return resp, err
	}

	log = log.WithField("status", resp.StatusCode)
	if resp.StatusCode < 400 {
		log.Debug("HTTP response")
		return resp, nil
	}

	// Read and log the response body only for errors
	bodyBytes, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		log.WithError(readErr).Debug("Failed to read error response body")
	} else {
		log.WithField("body", string(bodyBytes)).Debug("HTTP error response")
	}

	// Restore the body for the caller
	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	return resp, nil
}

// EnableHTTPDebugLogging wraps the HTTP client with debug logging
func EnableHTTPDebugLogging(client *http.Client, logger logrus.FieldLogger) *http.Client {
	if client == nil {
		client = &http.Client{}
	}

	if client.Transport == nil {
		client.Transport = http.DefaultTransport
	}

	client.Transport = &DebugHTTPTransport{
		Transport: client.Transport,
		Logger:    logger,
	}

	return client
}
