// Package services implements domain business logic and use cases.
package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
	"github.com/ochairo/cloudbuild-relay/internal/domain/interfaces"
)

// SignatureVerifier checks webhook bodies against the shared secret
type SignatureVerifier struct {
	logger interfaces.Logger
}

// NewSignatureVerifier creates a new signature verifier
func NewSignatureVerifier(logger interfaces.Logger) *SignatureVerifier {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &SignatureVerifier{logger: logger}
}

// ComputeSignature returns the hex HMAC-SHA256 of body keyed with secret
func ComputeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the signature header byte for byte with the computed
// lower-case hex signature. A missing or empty signature header is treated
// as an unsigned request.
func (v *SignatureVerifier) Verify(headers entities.Headers, body []byte, secret string) error {
	serverSignature, _ := headers.Get(entities.HeaderSignature)
	if serverSignature == "" {
		v.logger.Info("Content validation skipped, no signature header")
		return nil
	}

	clientSignature := ComputeSignature(body, secret)
	if subtle.ConstantTimeCompare([]byte(serverSignature), []byte(clientSignature)) != 1 {
		return fmt.Errorf("%w: content validation failed, server=%s, client=%s",
			entities.ErrAuthentication, serverSignature, clientSignature)
	}

	v.logger.Debug("Content validation succeeded")
	return nil
}
