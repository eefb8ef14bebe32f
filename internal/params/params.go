// Package params resolves request parameters for the HTTP functions.
//
// Every parameter may arrive in the query string or as a field of a JSON
// request body; the query wins, then the body, then the supplied fallback.
// Bodies are parsed leniently so callers can pass parameters purely in the
// query string without sending a body at all.
package params

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// maxBodyBytes bounds how much of a request body is read for parameters.
const maxBodyBytes = 1 << 20

// Resolve returns the first non-empty value for key among the query string,
// the decoded body fields, and the fallback.
func Resolve(query url.Values, body map[string]string, key, fallback string) string {
	if v := query.Get(key); v != "" {
		return v
	}
	if v := body[key]; v != "" {
		return v
	}
	return fallback
}

// DecodeBody reads a JSON object of string fields from the request body.
// An absent, empty, or malformed body yields an empty map, never an error;
// parameters then resolve from the query string or defaults.
func DecodeBody(r *http.Request) map[string]string {
	if r.Body == nil {
		return map[string]string{}
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(raw) == 0 {
		return map[string]string{}
	}

	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return map[string]string{}
	}
	return fields
}
