package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrProfileFetch covers every way the profile lookup can fail. The session
// treats it as expiry and logs out.
var ErrProfileFetch = errors.New("failed to fetch user profile")

// AuthError carries the backend's human readable reason, shown verbatim.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// FieldErrors maps a form field to the backend's messages for it.
type FieldErrors map[string][]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(f[k], " "))
	}
	return strings.Join(parts, "; ")
}

// First returns the first message for field, or "".
func (f FieldErrors) First(field string) string {
	if msgs := f[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// ResourceError is the one error a resource operation fails with, whatever
// the backend said. Fields is only filled where the form needs them.
type ResourceError struct {
	Op       string
	Resource string
	Fields   FieldErrors
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("failed to %s %s", e.Op, e.Resource)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

func resourceErr(op, resource string, err error) error {
	return &ResourceError{Op: op, Resource: resource, Err: err}
}

// StatusCode returns the backend status behind err, or 0 for transport
// and decoding failures.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func detailOf(err error) string {
	var se *statusError
	if !errors.As(err, &se) {
		return ""
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(se.Body, &body) != nil {
		return ""
	}
	return body.Detail
}

// fieldErrorsOf pulls DRF-style {"field": ["msg", ...]} bodies out of a 400.
func fieldErrorsOf(err error) FieldErrors {
	var se *statusError
	if !errors.As(err, &se) || se.Code != 400 {
		return nil
	}
	var raw map[string]json.RawMessage
	if json.Unmarshal(se.Body, &raw) != nil {
		return nil
	}

	fields := FieldErrors{}
	for k, v := range raw {
		var list []string
		if json.Unmarshal(v, &list) == nil && len(list) > 0 {
			fields[k] = list
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			fields[k] = []string{s}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
