package errors

import (
	"errors"
	"fmt"
)

// StatusError is implemented by errors that carry an upstream HTTP status.
type StatusError interface {
	error
	UpstreamName() string
	HTTPStatus() int
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	Upstream       string `json:"upstream,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
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
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var statusErr StatusError
	if errors.As(err, &statusErr) {
		d.Upstream = statusErr.UpstreamName()
		d.UpstreamStatus = statusErr.HTTPStatus()
	}

	return d
}
