package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidBody is returned when a request body is not a flat JSON object.
var ErrInvalidBody = errors.New("request body must be a JSON object")

// DecodeFields reads a flat JSON object into string fields. Numbers and booleans
// are kept in their literal form; nulls are dropped.
func DecodeFields(body []byte) (map[string]string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrInvalidBody
	}

	var raw map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if raw == nil {
		return nil, ErrInvalidBody
	}

	fields := make(map[string]string, len(raw))
	for key, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			fields[key] = val
		case json.Number:
			fields[key] = val.String()
		case bool:
			fields[key] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("%w: field %s must be a string or number", ErrInvalidBody, key)
		}
	}
	return fields, nil
}
