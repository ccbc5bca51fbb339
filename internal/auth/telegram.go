package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Validation failures for the Telegram Login Widget handshake.
var (
	ErrMissingHash  = errors.New("payload has no hash field")
	ErrBadSignature = errors.New("payload signature mismatch")
	ErrExpired      = errors.New("payload auth_date is too old")
)

// Secret derives the HMAC key for login verification: the SHA-256 digest of
// the bot token, used as the raw key.
func Secret(botToken string) []byte {
	sum := sha256.Sum256([]byte(botToken))
	return sum[:]
}

// Validate checks a Telegram Login Widget payload against the shared-secret
// HMAC scheme: every field except hash is serialized as key=value lines,
// keys sorted lexicographically, and the HMAC-SHA256 hex digest of that
// string must match the hash field byte for byte.
//
// When maxAge is positive, payloads whose auth_date lies further in the past
// are rejected so that captured login URLs cannot be replayed indefinitely.
func Validate(values url.Values, secret []byte, maxAge time.Duration) error {
	got := values.Get("hash")
	if got == "" {
		return ErrMissingHash
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(checkString(values)))
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(got)) {
		return ErrBadSignature
	}

	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid auth_date: %w", err)
		}
		if time.Since(time.Unix(authDate, 0)) > maxAge {
			return ErrExpired
		}
	}

	return nil
}

// checkString builds the canonical data-check string: all fields except
// hash, sorted by key, joined as key=value lines.
func checkString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}

	return strings.Join(pairs, "\n")
}

// Sign computes the hex HMAC digest for a payload. It exists so tests and
// tooling can produce valid payloads; Validate is its inverse.
func Sign(values url.Values, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(checkString(values)))
	return hex.EncodeToString(mac.Sum(nil))
}
