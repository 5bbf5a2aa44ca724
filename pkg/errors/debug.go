package errors

import (
	"errors"
	"fmt"
)

// ErrorDump flattens an error chain for structured log fields.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Status     int      `json:"status,omitempty"`
	Chain      []string `json:"chain,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
		if details, ok := te.Details().(map[string]any); ok {
			if status, ok := details["status"].(int); ok {
				d.Status = status
			}
		}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	return d
}

// Fields returns the dump as logger fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Status != 0 {
		fields["status"] = d.Status
	}
	return fields
}
