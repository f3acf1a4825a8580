package provider

import (
	"encoding/json"
	"strconv"
	"strings"
)

// looseInt decodes a JSON number or a numeric string into an int64.
// Providers round-trip custom attribution fields as strings; anything
// absent or non-numeric decodes to zero rather than failing the payload.
type looseInt int64

func (l *looseInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*l = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*l = 0
		return nil
	}
	*l = looseInt(v)
	return nil
}

var _ json.Unmarshaler = (*looseInt)(nil)
