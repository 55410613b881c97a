package whatsapp

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	KindNetworkUnreachable FailureKind = "network_unreachable"
	KindRemoteRejected     FailureKind = "remote_rejected"
	KindRequestMalformed   FailureKind = "request_malformed"
)

func (k FailureKind) String() string { return string(k) }

// DeliveryError is a classified send failure. Status and Body are set for
// KindRemoteRejected only; Err then holds a body read failure, if any.
type DeliveryError struct {
	Kind   FailureKind
	Status int
	Body   string
	Err    error
}

func (e *DeliveryError) Error() string {
	switch e.Kind {
	case KindRemoteRejected:
		if e.Err != nil {
			return fmt.Sprintf("whatsapp: %s (status %d): %s: %v", e.Kind, e.Status, e.Body, e.Err)
		}
		return fmt.Sprintf("whatsapp: %s (status %d): %s", e.Kind, e.Status, e.Body)
	default:
		if e.Err != nil {
			return fmt.Sprintf("whatsapp: %s: %v", e.Kind, e.Err)
		}
		return "whatsapp: " + e.Kind.String()
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Classify returns the failure kind of err, or "" if err is not a DeliveryError.
func Classify(err error) FailureKind {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func malformed(err error) *DeliveryError {
	return &DeliveryError{Kind: KindRequestMalformed, Err: err}
}
