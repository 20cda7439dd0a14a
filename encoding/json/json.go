// Package json provides the JSON codec used across the repository. On
// supported platforms it is backed by sonic, otherwise by encoding/json.
package json

import "encoding/json" //nolint:depguard // Used for type aliases only

// RawMessage is a raw encoded JSON value
type RawMessage = json.RawMessage

// Unmarshaler is implemented by types that can unmarshal a JSON description of
// themselves
type Unmarshaler = json.Unmarshaler
