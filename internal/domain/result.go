package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// ResolutionState is the tag of a ResolutionResult.
type ResolutionState int

const (
	ResolutionError ResolutionState = iota // No endpoint gave an authoritative answer
	ResolutionNoMatch                      // Endpoints answered, none knew a class
	ResolutionMatched                      // A class was selected
)

func (s ResolutionState) String() string {
	switch s {
	case ResolutionMatched:
		return "matched"
	case ResolutionNoMatch:
		return "no-match"
	default:
		return "error"
	}
}

// ResolutionResult is the outcome of resolving an identifier's class.
// Exactly one of the three states is set; Class is only meaningful for Matched
// and Reason only for Error.
type ResolutionResult struct {
	State  ResolutionState
	Class  string
	Reason string
}

// Matched creates a matched resolution result.
func Matched(class string) ResolutionResult {
	return ResolutionResult{State: ResolutionMatched, Class: class}
}

// NoMatch creates a no-match resolution result.
func NoMatch() ResolutionResult {
	return ResolutionResult{State: ResolutionNoMatch}
}

// ResolutionFailed creates an error resolution result.
func ResolutionFailed(reason string) ResolutionResult {
	return ResolutionResult{State: ResolutionError, Reason: reason}
}

// Property is one named entry of a property group. A property holds more than
// one value when the backing query returned it on several rows.
type Property struct {
	Name   string
	Values []string
}

// PropertyGroup is an ordered mapping of property name to value(s).
type PropertyGroup struct {
	Properties []Property
}

// Add appends a value, merging it into an existing property of the same name.
// A value already present under that name is not repeated.
func (g *PropertyGroup) Add(name, value string) {
	for i := range g.Properties {
		if g.Properties[i].Name != name {
			continue
		}
		for _, v := range g.Properties[i].Values {
			if v == value {
				return
			}
		}
		g.Properties[i].Values = append(g.Properties[i].Values, value)
		return
	}
	g.Properties = append(g.Properties, Property{Name: name, Values: []string{value}})
}

// Len returns the number of properties in the group.
func (g PropertyGroup) Len() int {
	return len(g.Properties)
}

// Get returns the values recorded for name.
func (g PropertyGroup) Get(name string) ([]string, bool) {
	for _, p := range g.Properties {
		if p.Name == name {
			return p.Values, true
		}
	}
	return nil, false
}

// MarshalJSON renders the group as a JSON object in insertion order.
// Single values are rendered as strings, repeated values as arrays.
func (g PropertyGroup) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range g.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var val []byte
		if len(p.Values) == 1 {
			val, err = json.Marshal(p.Values[0])
		} else {
			val, err = json.Marshal(p.Values)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MetadataRecord is the ordered sequence of property groups for one identifier.
type MetadataRecord []PropertyGroup

// Sample is one time-series reading.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TimeseriesRecord holds the samples of one stream.
type TimeseriesRecord struct {
	StreamID string   `json:"id"`
	Unit     string   `json:"unit,omitempty"`
	Samples  []Sample `json:"samples"`
}

// TaggedSample is a sample carrying its stream attribution in a merged sequence.
type TaggedSample struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	StreamID string    `json:"id"`
	Unit     string    `json:"unit,omitempty"`
}

// TimeseriesResult is the output of the time-series stage: the per-stream
// records and the time-ordered merge of all of their samples.
type TimeseriesResult struct {
	Streams []TimeseriesRecord
	Merged  []TaggedSample
}
