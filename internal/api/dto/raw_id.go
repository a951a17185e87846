package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawID is an id posted by a dashboard form. It keeps whatever the client sent so a malformed
// value can be treated as absent instead of failing the whole body.
type RawID string

// UnmarshalJSON accepts a JSON string, number or null.
func (r *RawID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = RawID(s)
		return nil
	}
	*r = RawID(data)
	return nil
}

// UnmarshalText keeps form values verbatim.
func (r *RawID) UnmarshalText(text []byte) error {
	*r = RawID(text)
	return nil
}

// Present reports whether anything other than blank or "0" was sent.
func (r RawID) Present() bool {
	v := strings.TrimSpace(string(r))
	return v != "" && v != "0"
}

// Int64 returns the id when it is a positive integer.
func (r RawID) Int64() (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(string(r)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// OrZero is Int64 with malformed values mapped to 0.
func (r RawID) OrZero() int64 {
	id, _ := r.Int64()
	return id
}
