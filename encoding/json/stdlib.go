//go:build !(amd64 || arm64) || sonic_off

package json

import "encoding/json" //nolint:depguard // Fallback when sonic is unavailable

// Implementation is a constant string that represents the current JSON
// implementation package
const Implementation = "encoding/json"

var (
	// Marshal returns the JSON encoding of v
	Marshal = json.Marshal
	// Unmarshal parses the JSON-encoded data and stores the result in the value
	// pointed to by v
	Unmarshal = json.Unmarshal
	// MarshalIndent is like Marshal but applies Indent to format the output
	MarshalIndent = json.MarshalIndent
	// Valid reports whether data is a valid JSON encoding
	Valid = json.Valid
)
