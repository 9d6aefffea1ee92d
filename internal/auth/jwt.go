// Package auth verifies bearer access tokens issued by the SafePath identity
// provider.
//
// Tokens are HS256 JWTs carrying the user ID in both the "uid" claim and the
// subject. Issuer and audience are checked when configured, and an expiry is
// always required. Issuance lives with the identity provider; IssueAccessToken
// exists for local development and tests.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry is the lifetime of tokens minted by IssueAccessToken.
const AccessTokenExpiry = 1 * time.Hour

// Predefined JWT errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrMissingSubject     = errors.New("access token has no user id")
	ErrMissingSigningKey  = errors.New("jwt signing key is required")
)

// Claims represents the claims in API access tokens.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the authenticated user's ID.
	UserID string `json:"uid"`
}

// VerifierConfig holds configuration for the token verifier.
type VerifierConfig struct {
	// SigningKey is the shared HMAC secret (required).
	SigningKey string

	// Issuer is the expected iss claim (optional).
	Issuer string

	// Audience is the expected aud claim (optional).
	Audience string

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Verifier validates access tokens.
type Verifier struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

// NewVerifier creates a new token verifier.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Verifier{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		now:        now,
	}, nil
}

// ValidateAccessToken validates an access token and returns the user ID it carries.
func (v *Verifier) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := v.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Parse validates an access token and returns its claims.
func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAccessToken
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, ErrMissingSubject)
	}

	return claims, nil
}

// IssueAccessToken signs a token for userID with the verifier's key, issuer
// and audience.
func (v *Verifier) IssueAccessToken(userID string) (string, time.Time, error) {
	now := v.now()
	expiresAt := now.Add(AccessTokenExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		UserID: userID,
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

func generateTokenID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
