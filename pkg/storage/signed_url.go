package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RefSigner issues and validates opaque, expiring content references of the
// form owner.expiry.path.signature.
type RefSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewRefSigner constructs a signer with the provided secret and TTL.
func NewRefSigner(secret string, ttl time.Duration) *RefSigner {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RefSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a signed reference to relPath owned by owner.
func (s *RefSigner) Generate(owner, relPath string) (string, time.Time, error) {
	if owner == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("owner and path required")
	}
	if strings.Contains(owner, ".") {
		return "", time.Time{}, fmt.Errorf("owner must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{owner, exp, encodedPath, s.sign(owner, exp, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse validates a reference and returns its owner and path.
func (s *RefSigner) Parse(token string) (owner, relPath string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("invalid reference format")
	}
	owner, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(owner, exp, encodedPath)), []byte(signature)) {
		return "", "", fmt.Errorf("invalid reference signature")
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid reference expiry")
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("reference expired")
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", fmt.Errorf("decode path: %w", err)
	}
	return owner, string(rawPath), nil
}

func (s *RefSigner) sign(owner, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(owner + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
