package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/lestrrat-go/jwx/jwk"
)

const googleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

// GoogleIdentity is the verified identity extracted from a Google ID token
type GoogleIdentity struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// GoogleAuthService verifies Google Sign-In ID tokens against Google's
// published JWKS before the account layer trusts them.
type GoogleAuthService struct {
	certsURL string
}

// NewGoogleAuthService creates a new Google auth service
func NewGoogleAuthService() *GoogleAuthService {
	return &GoogleAuthService{certsURL: googleCertsURL}
}

// VerifyIDToken checks the token signature against Google's public keys and
// returns the identity claims.
func (s *GoogleAuthService) VerifyIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if idToken == "" {
		return nil, errors.New("ID token is required")
	}

	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("malformed ID token")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT header: %w", err)
	}

	var header struct {
		Kid string `json:"kid"`
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("invalid JWT header JSON: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	jwkSet, err := jwk.Fetch(fetchCtx, s.certsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google public keys: %w", err)
	}

	key, found := jwkSet.LookupKeyID(header.Kid)
	if !found {
		return nil, errors.New("Google public key not found")
	}

	var pubkey interface{}
	if err := key.Raw(&pubkey); err != nil {
		return nil, fmt.Errorf("failed to parse Google public key: %w", err)
	}

	parsedToken, err := jwt.Parse(idToken, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != header.Alg {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pubkey, nil
	})
	if err != nil || !parsedToken.Valid {
		return nil, errors.New("invalid or expired Google token")
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}

	googleID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	if googleID == "" || email == "" {
		return nil, errors.New("Google user ID or email missing from token")
	}

	emailVerified, _ := claims["email_verified"].(bool)
	if !emailVerified {
		// Google sometimes returns string "true"
		if s, ok := claims["email_verified"].(string); ok {
			emailVerified = s == "true"
		}
	}
	if !emailVerified {
		return nil, errors.New("Google email not verified")
	}

	return &GoogleIdentity{
		GoogleID: googleID,
		Email:    email,
		Name:     name,
		Picture:  picture,
	}, nil
}
