package invitation

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors
var (
	ErrInvalidToken = errors.New("invalid invitation token")
)

// Custom claim keys carried by invitation tokens.
const (
	claimClubID           = "clubId"
	claimContributorEmail = "contributorEmail"
	claimContributorID    = "contributorId"
)

// Token is a time-bounded, signed invitation. Its state lives entirely in
// the signed value: it is never persisted as a row and is reconstructed by
// verification.
type Token struct {
	Email             string
	ClubID            string
	ContributorID     string
	ExpirationInstant time.Time
	TokenValue        string
}

// TokenConfig defines how invitation tokens are signed and verified.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func (c TokenConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

type invitationClaims struct {
	jwt.RegisteredClaims
	ClubID           string `json:"clubId"`
	ContributorEmail string `json:"contributorEmail"`
	ContributorID    string `json:"contributorId,omitempty"`
}

// CreateToken issues a signed HS256 invitation token embedding the email,
// club and optional target contributor, expiring after the configured TTL.
func CreateToken(cfg TokenConfig, email, clubID, contributorID string) (*Token, error) {
	now := cfg.now()
	expiration := now.Add(cfg.TTL)

	claims := invitationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiration),
		},
		ClubID:           clubID,
		ContributorEmail: email,
		ContributorID:    contributorID,
	}

	tokenValue, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign invitation token: %w", err)
	}

	return &Token{
		Email:             email,
		ClubID:            clubID,
		ContributorID:     contributorID,
		ExpirationInstant: expiration,
		TokenValue:        tokenValue,
	}, nil
}

// DecodeToken verifies signature, issuer and expiry and reconstructs the
// invitation. Every verification failure collapses to ErrInvalidToken so
// callers cannot distinguish why a token was rejected.
func DecodeToken(cfg TokenConfig, tokenValue string) (*Token, error) {
	var claims invitationClaims
	_, err := jwt.ParseWithClaims(tokenValue, &claims, func(t *jwt.Token) (interface{}, error) {
		return cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ContributorEmail == "" || claims.ClubID == "" {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}

	return &Token{
		Email:             claims.ContributorEmail,
		ClubID:            claims.ClubID,
		ContributorID:     claims.ContributorID,
		ExpirationInstant: claims.ExpiresAt.Time,
		TokenValue:        tokenValue,
	}, nil
}
