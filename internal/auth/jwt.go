package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingOwner is returned when a valid token names no owner
	ErrMissingOwner = errors.New("token has no owner claim")
)

// Verifier checks tokens issued by the identity provider and extracts the
// owner identity that partitions session storage.
type Verifier struct {
	secretKey  []byte
	issuer     string
	ownerClaim string
}

// NewVerifier creates a Verifier for HS256 tokens signed with secretKey.
// ownerClaim names the claim holding the owner id; it defaults to "sub".
// An empty issuer skips the issuer check.
func NewVerifier(secretKey, issuer, ownerClaim string) *Verifier {
	if ownerClaim == "" {
		ownerClaim = "sub"
	}
	return &Verifier{
		secretKey:  []byte(secretKey),
		issuer:     issuer,
		ownerClaim: ownerClaim,
	}
}

// Owner validates tokenString and returns its owner.
func (v *Verifier) Owner(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secretKey, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	owner, _ := claims[v.ownerClaim].(string)
	if owner == "" {
		return "", ErrMissingOwner
	}
	return owner, nil
}

// Issue signs a token for owner. It backs the CLI and tests; production
// tokens come from the identity provider.
func (v *Verifier) Issue(owner string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		v.ownerClaim: owner,
		"iat":        jwt.NewNumericDate(now),
		"exp":        jwt.NewNumericDate(now.Add(ttl)),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secretKey)
}

// ExtractTokenFromBearer extracts token from "Bearer <token>" format
func ExtractTokenFromBearer(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}
