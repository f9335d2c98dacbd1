package entities

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the relay pipeline
var (
	ErrMalformedInput      = errors.New("malformed input")
	ErrAuthentication      = errors.New("authentication failure")
	ErrPolicyRejection     = errors.New("policy rejection")
	ErrUnsupportedPlatform = fmt.Errorf("%w: unsupported platform", ErrPolicyRejection)
	ErrTransport           = errors.New("transport failure")
	ErrUnexpectedResponse  = errors.New("unexpected response")
)
