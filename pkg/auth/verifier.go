package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the fields the CRM needs out of an identity-provider token.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// Verifier validates bearer tokens minted by the external identity
// provider. The CRM never issues or refreshes tokens itself. The
// context is threaded for implementations that check revocation
// against a remote store.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

type jwtVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTVerifier verifies HS256 tokens against the shared secret the
// identity provider is configured with.
func NewJWTVerifier(secret, issuer, audience string) Verifier {
	return &jwtVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

func (v *jwtVerifier) Verify(_ context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	sub, err := mapClaims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("missing subject: %w", err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("subject is not a user id: %w", err)
	}

	claims := &Claims{UserID: userID}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}

	return claims, nil
}
