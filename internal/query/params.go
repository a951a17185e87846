// Package query builds the filter/search predicates and pagination shared by list views.
package query

import (
	"strconv"
	"strings"
)

// Method selects how text predicates match.
type Method string

const (
	// MethodFilter matches case-insensitive prefixes.
	MethodFilter Method = "filter"
	// MethodSearch matches case-insensitive substrings.
	MethodSearch Method = "search"
)

// MethodParam is the query parameter carrying the match method.
const MethodParam = "filter_method"

// ParseMethod returns MethodFilter for anything other than "search".
func ParseMethod(raw string) Method {
	if Method(strings.ToLower(strings.TrimSpace(raw))) == MethodSearch {
		return MethodSearch
	}
	return MethodFilter
}

// FilterParams is the normalized form of list-view query parameters.
type FilterParams struct {
	Method Method
	// Text holds one entry per requested text field; missing fields are present with "".
	Text map[string]string
	// ID is set only when the raw "id" parameter is a positive integer.
	ID     *int64
	values map[string]string
}

// NormalizeFilterParams copies the relevant entries out of raw without touching it.
func NormalizeFilterParams(raw map[string]string, textFields ...string) FilterParams {
	params := FilterParams{
		Method: ParseMethod(raw[MethodParam]),
		Text:   make(map[string]string, len(textFields)),
		values: make(map[string]string, len(raw)),
	}
	for key, value := range raw {
		params.values[key] = strings.TrimSpace(value)
	}
	for _, field := range textFields {
		params.Text[field] = params.values[field]
	}
	if id, err := strconv.ParseInt(params.values["id"], 10, 64); err == nil && id > 0 {
		params.ID = &id
	}
	return params
}

// Value returns a trimmed raw parameter, for enum-like fields such as role or department.
func (p FilterParams) Value(key string) string {
	return p.values[key]
}

// Int64 parses a raw parameter as a positive id.
func (p FilterParams) Int64(key string) (int64, bool) {
	v, err := strconv.ParseInt(p.values[key], 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
