package types

import (
	"bytes"
	"encoding/json"
)

// NullableString tracks whether a string field was present in a JSON body, so PATCH
// handlers can tell "leave unchanged" (absent) from "clear" (null).
type NullableString struct {
	Valid bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	var parsed string
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	n.Value = &parsed
	return nil
}

// Ptr returns the decoded pointer when present, or fallback when the key was absent.
func (n NullableString) Ptr(fallback *string) *string {
	if !n.Valid {
		return fallback
	}
	return n.Value
}
