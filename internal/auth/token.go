package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/project-planner/internal/domain"
)

// RejectReason records why a token failed verification. It is for logs
// and metrics only; callers outside the server see domain.ErrUnauthorized.
type RejectReason string

const (
	ReasonMalformed      RejectReason = "malformed"
	ReasonSignature      RejectReason = "signature"
	ReasonExpired        RejectReason = "expired"
	ReasonMissingSubject RejectReason = "missing_subject"
)

// TokenError is returned by TokenService.Verify. It matches
// domain.ErrUnauthorized under errors.Is.
type TokenError struct {
	Reason RejectReason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token rejected (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("token rejected (%s)", e.Reason)
}

func (e *TokenError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrUnauthorized}
	}
	return []error{domain.ErrUnauthorized, e.Err}
}

// ReasonOf extracts the rejection reason from err, or "" if err did not
// come from Verify.
func ReasonOf(err error) RejectReason {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Reason
	}
	return ""
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, opts ...TokenOption) *TokenService {
	s := &TokenService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for subject that expires ttl from now.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("issue token: empty subject")
	}
	if ttl <= 0 {
		return "", errors.New("issue token: ttl must be positive")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature, then expiry, then the subject claim, and
// returns the subject. Every failure is a *TokenError.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", &TokenError{Reason: classify(err), Err: err}
	}
	if claims.Subject == "" {
		return "", &TokenError{Reason: ReasonMissingSubject}
	}
	return claims.Subject, nil
}

func classify(err error) RejectReason {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonMalformed
	}
}
