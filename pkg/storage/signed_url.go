package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid is returned for malformed or tampered download tokens.
	ErrTokenInvalid = errors.New("signed url: invalid token")
	// ErrTokenExpired is returned when the token is authentic but past its expiry.
	ErrTokenExpired = errors.New("signed url: token expired")
)

// SignedURLSigner issues short lived download tokens for stored objects.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SignedObject is the payload recovered from a verified token.
type SignedObject struct {
	Subject   string
	Key       string
	ExpiresAt time.Time
}

// NewSignedURLSigner builds a signer; non-positive TTLs default to one hour.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token binding subject and key until the configured TTL elapses.
func (s *SignedURLSigner) Sign(subject, key string) (string, time.Time, error) {
	if subject == "" || key == "" {
		return "", time.Time{}, fmt.Errorf("subject and key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	parts := []string{
		base64.RawURLEncoding.EncodeToString([]byte(subject)),
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(key)),
	}
	body := strings.Join(parts, ".")
	return body + "." + s.mac(body), expiresAt, nil
}

// Verify checks the token signature and expiry.
func (s *SignedURLSigner) Verify(token string) (SignedObject, error) {
	idx := strings.LastIndex(token, ".")
	if idx <= 0 {
		return SignedObject{}, ErrTokenInvalid
	}
	body, sig := token[:idx], token[idx+1:]
	if !hmac.Equal([]byte(s.mac(body)), []byte(sig)) {
		return SignedObject{}, ErrTokenInvalid
	}

	parts := strings.Split(body, ".")
	if len(parts) != 3 {
		return SignedObject{}, ErrTokenInvalid
	}
	subject, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return SignedObject{}, ErrTokenInvalid
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return SignedObject{}, ErrTokenInvalid
	}
	key, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return SignedObject{}, ErrTokenInvalid
	}

	obj := SignedObject{Subject: string(subject), Key: string(key), ExpiresAt: time.Unix(exp, 0).UTC()}
	if s.now().After(obj.ExpiresAt) {
		return obj, ErrTokenExpired
	}
	return obj, nil
}

func (s *SignedURLSigner) mac(body string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}
