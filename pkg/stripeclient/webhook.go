/**
 * @description
 * This file implements verification of Stripe webhook signatures.
 *
 * Stripe signs every webhook delivery with an HMAC-SHA256 over the string
 * "<timestamp>.<raw body>" using the endpoint's webhook secret, and sends the
 * result in the Stripe-Signature header as "t=<timestamp>,v1=<hex>[,v1=...]".
 * Verification MUST run against the exact bytes received, before any JSON
 * parsing, or the computed digest will not match.
 */
package stripeclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how far a signed timestamp may drift from the current
// time before the delivery is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

var (
	// ErrNoSignature indicates a missing or unparsable signature header.
	ErrNoSignature = errors.New("webhook signature header missing or malformed")

	// ErrSignatureMismatch indicates no v1 signature matched the payload.
	ErrSignatureMismatch = errors.New("webhook signature verification failed")

	// ErrTimestampOutsideTolerance indicates the signed timestamp is too old
	// or too far in the future.
	ErrTimestampOutsideTolerance = errors.New("webhook timestamp outside tolerance")
)

// VerifySignature checks a webhook delivery against the shared secret. The
// payload must be the raw, unmodified request body.
func VerifySignature(payload []byte, header, secret string) error {
	return verifySignatureAt(payload, header, secret, DefaultTolerance, time.Now())
}

// verifySignatureAt is the clock-injectable core of VerifySignature.
func verifySignatureAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	timestamp, signatures := parseSignatureHeader(header)
	if timestamp == 0 || len(signatures) == 0 {
		return ErrNoSignature
	}

	signedAt := time.Unix(timestamp, 0)
	if now.Sub(signedAt) > tolerance || signedAt.Sub(now) > tolerance {
		return ErrTimestampOutsideTolerance
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		provided, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(provided, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// parseSignatureHeader extracts the timestamp and all v1 signatures from a
// Stripe-Signature header value.
func parseSignatureHeader(header string) (int64, []string) {
	var timestamp int64
	var signatures []string

	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "t":
			ts, err := strconv.ParseInt(parts[1], 10, 64)
			if err == nil {
				timestamp = ts
			}
		case "v1":
			signatures = append(signatures, parts[1])
		}
	}
	return timestamp, signatures
}

// SignPayload produces a Stripe-Signature header value for the given payload
// and timestamp. Used by tests to build valid deliveries.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + strconv.FormatInt(ts, 10) + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
