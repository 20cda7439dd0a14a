//go:build (amd64 || arm64) && !sonic_off

package json

import "github.com/bytedance/sonic"

// Implementation is a constant string that represents the current JSON
// implementation package
const Implementation = "bytedance/sonic"

var (
	// Marshal returns the JSON encoding of v
	Marshal = sonic.ConfigStd.Marshal
	// Unmarshal parses the JSON-encoded data and stores the result in the value
	// pointed to by v
	Unmarshal = sonic.ConfigStd.Unmarshal
	// MarshalIndent is like Marshal but applies Indent to format the output
	MarshalIndent = sonic.ConfigStd.MarshalIndent
	// Valid reports whether data is a valid JSON encoding
	Valid = sonic.ConfigStd.Valid
)
