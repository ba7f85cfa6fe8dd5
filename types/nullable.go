package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

var jsonNull = []byte("null")

// empty strings go out as JSON null
func marshalNullable(s string) ([]byte, error) {
	if s == "" {
		return jsonNull, nil
	}
	return json.Marshal(s)
}

// unmarshalNullable returns "" for JSON null.
func unmarshalNullable(b []byte) (string, error) {
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", err
	}
	return s, nil
}

// normalizeLabel lowercases and trims a label, mapping the usual spellings of
// "nothing" to the empty string.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "null", "none", "nil", "n/a", "없음":
		return ""
	}
	return s
}
