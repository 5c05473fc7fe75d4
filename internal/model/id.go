package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a server-assigned identifier that is either numeric or an opaque string.
type ID struct {
	num     int64
	str     string
	numeric bool
}

// NumericID returns a numeric ID.
func NumericID(n int64) ID {
	return ID{num: n, numeric: true}
}

// OpaqueID returns an opaque string ID.
func OpaqueID(s string) ID {
	return ID{str: s}
}

// ParseID tries a numeric parse first and falls back to an opaque string.
// Empty input yields the zero ID.
func ParseID(s string) ID {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NumericID(n)
	}
	return OpaqueID(s)
}

func (id ID) IsZero() bool {
	return !id.numeric && id.str == ""
}

func (id ID) IsNumeric() bool {
	return id.numeric
}

// Int returns the numeric value and whether the ID is numeric.
func (id ID) Int() (int64, bool) {
	return id.num, id.numeric
}

func (id ID) String() string {
	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	if id.str == "" {
		return []byte("null"), nil
	}
	return json.Marshal(id.str)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ParseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	if v, err := n.Int64(); err == nil {
		*id = NumericID(v)
		return nil
	}
	*id = OpaqueID(n.String())
	return nil
}
