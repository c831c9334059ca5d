package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	stateIssuer = "swipejobs"
	stateTTL    = 10 * time.Minute
)

// StateService issues and checks the OAuth "state" parameter.
//
// The state is a short-lived HS256 JWT whose subject is the user starting
// the GitHub link. The callback arrives from GitHub's redirect, so it carries
// no session; the signed state is what ties it back to the user and what
// stops a forged callback (CSRF) from linking an attacker's account.
type StateService struct {
	secret []byte
	now    func() time.Time
}

// NewStateService creates a StateService with the given HMAC secret.
func NewStateService(secret string) (*StateService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: state secret must be at least 16 characters")
	}
	return &StateService{secret: []byte(secret), now: time.Now}, nil
}

type stateClaims struct {
	jwt.RegisteredClaims
}

// Generate signs a state token for userID valid for ten minutes.
func (s *StateService) Generate(userID string) (string, error) {
	return s.generate(userID, stateTTL)
}

func (s *StateService) generate(userID string, ttl time.Duration) (string, error) {
	now := s.now()
	c := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    stateIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing state: %w", err)
	}
	return signed, nil
}

// Validate verifies a state token and returns the user id it carries.
func (s *StateService) Validate(state string) (string, error) {
	token, err := jwt.ParseWithClaims(
		state,
		&stateClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: state expired")
		}
		return "", fmt.Errorf("auth: invalid state: %w", err)
	}

	c, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid state claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: state has no subject")
	}
	return c.Subject, nil
}
