package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ShoaibAJ01/zameerrealstates/internal/apperrors"
)

// Validator verifies bearer tokens for both the socket and REST facades.
// HS256 uses a shared secret, RS256 a PEM public key.
type Validator struct {
	alg    string
	pubKey *rsa.PublicKey
	secret []byte
}

func NewValidator(alg, secret, pubKeyPath string) (*Validator, error) {
	v := &Validator{alg: alg}
	switch alg {
	case "RS256":
		b, err := os.ReadFile(pubKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read pubkey: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(b)
		if err != nil {
			return nil, fmt.Errorf("parse pubkey: %w", err)
		}
		v.pubKey = key
	case "HS256":
		if secret == "" {
			return nil, errors.New("hs256 secret required")
		}
		v.secret = []byte(secret)
	default:
		return nil, fmt.Errorf("unsupported alg %q", alg)
	}
	return v, nil
}

// Validate returns the subject (user id) carried by a valid token.
func (v *Validator) Validate(token string) (string, error) {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != v.alg {
			return nil, errors.New("unexpected signing method")
		}
		if v.alg == "RS256" {
			return v.pubKey, nil
		}
		return v.secret, nil
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{v.alg}))
	tok, err := parser.Parse(token, keyFunc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return "", apperrors.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		// older clients put the id under userId
		sub, _ = claims["userId"].(string)
	}
	if sub == "" {
		return "", fmt.Errorf("%w: subject missing", apperrors.ErrUnauthorized)
	}
	return sub, nil
}
