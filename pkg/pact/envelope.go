package pact

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Event is the CloudEvents-style envelope exchanged between hosts.
type Event struct {
	Type        string          `json:"type"`
	SpecVersion string          `json:"specversion"`
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Time        string          `json:"time"`
	Data        json.RawMessage `json:"data"`
}

// ParseEvent decodes an inbound envelope and checks the required fields
// (specversion, source, type, data). Failures wrap ErrInvalidEvent.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if ev.SpecVersion == "" || ev.Source == "" || ev.Type == "" || !hasData(ev.Data) {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidEvent)
	}
	return &ev, nil
}

// hasData reports whether data is present and not an empty scalar. null,
// false, 0 and "" all count as missing; empty objects and arrays do not.
func hasData(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// Strings returns the value at path inside data as a list of strings.
// ok is false when the path is absent or does not hold an array.
// Non-string elements are rendered with fmt so they fail any format check.
func (e *Event) Strings(path ...string) (values []string, ok bool) {
	var cur any
	if err := json.Unmarshal(e.Data, &cur); err != nil {
		return nil, false
	}
	for _, key := range path {
		obj, isObj := cur.(map[string]any)
		if !isObj {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	arr, isArr := cur.([]any)
	if !isArr {
		return nil, false
	}
	values = make([]string, len(arr))
	for i, v := range arr {
		if s, isStr := v.(string); isStr {
			values[i] = s
		} else {
			values[i] = fmt.Sprint(v)
		}
	}
	return values, true
}

// IsCanonicalID reports whether s is a hyphenated 8-4-4-4-12 hex UUID.
// Braced, URN-prefixed and unhyphenated forms are rejected.
func IsCanonicalID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// RequestFulfilledData is the payload of a RequestFulfilled event.
type RequestFulfilledData struct {
	RequestEventID string `json:"requestEventId"`
	Pfs            []any  `json:"pfs"`
}

// RequestRejectedData is the payload of a RequestRejected event.
type RequestRejectedData struct {
	RequestEventID string    `json:"requestEventId"`
	Error          ErrorBody `json:"error"`
}

// ErrorBody is the {code, message} error shape shared by events and HTTP responses.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
