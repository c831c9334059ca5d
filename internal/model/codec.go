package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList is a list of strings stored as a JSON array in a TEXT column.
//
// Encoding never produces NULL: an empty or nil list is written as "[]".
// Decoding is lenient: NULL, empty text or malformed JSON all decode to an
// empty list, so one bad row never breaks a whole profile read.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("model: encoding string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	raw, ok := textOf(src)
	if !ok {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		*l = StringList{}
		return nil
	}
	*l = out
	return nil
}

// MarshalJSON keeps nil lists as [] in API responses.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// ParseStringList splits a comma separated form value, trimming blanks.
// "Python, Go," becomes ["Python", "Go"].
func ParseStringList(s string) StringList {
	out := StringList{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StringMap is a string-to-string map stored as a JSON object, e.g.
// programming language -> proficiency. Same NULL and decode rules as
// StringList.
type StringMap map[string]string

// Value implements driver.Valuer.
func (m StringMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, fmt.Errorf("model: encoding string map: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *StringMap) Scan(src any) error {
	raw, ok := textOf(src)
	if !ok {
		*m = StringMap{}
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		*m = StringMap{}
		return nil
	}
	*m = out
	return nil
}

// MarshalJSON keeps nil maps as {} in API responses.
func (m StringMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(m))
}

// Value implements driver.Valuer for the persisted resume extraction.
func (r ResumeExtract) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("model: encoding resume extract: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner. Undecodable content yields an empty extract.
func (r *ResumeExtract) Scan(src any) error {
	*r = ResumeExtract{}
	raw, ok := textOf(src)
	if !ok {
		return nil
	}
	var out ResumeExtract
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	*r = out
	return nil
}

func textOf(src any) ([]byte, bool) {
	switch v := src.(type) {
	case string:
		if v == "" {
			return nil, false
		}
		return []byte(v), true
	case []byte:
		if len(v) == 0 {
			return nil, false
		}
		return v, true
	default:
		return nil, false
	}
}
