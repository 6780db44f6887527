// Package auth issues and verifies the bearer tokens that scope survey queries to an author.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

const (
	DefaultTTL    = 24 * time.Hour
	DefaultIssuer = "survey-manager-api"
)

// Payload is the decoded content of a token.
type Payload struct {
	Username  string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// CodecConfig configures a Codec.
type CodecConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
}

// Codec signs and verifies HS256 tokens. It is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	leeway := cfg.Leeway
	if leeway < 0 {
		leeway = 0
	}
	return &Codec{
		secret: append([]byte(nil), cfg.Secret...),
		issuer: issuer,
		ttl:    ttl,
		leeway: leeway,
		now:    time.Now,
	}, nil
}

// Encode issues a token for username that expires after the configured TTL.
func (c *Codec) Encode(username, userID string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.New("auth: username is required")
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature, issuer and expiry.
// Expired tokens yield a KindTokenExpired error, every other failure KindTokenMalformed.
func (c *Codec) Decode(tokenString string) (Payload, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Payload{}, domain.TokenMalformed(errors.New("empty token"))
	}

	parsed := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, parsed, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, domain.TokenExpired(err)
		}
		return Payload{}, domain.TokenMalformed(err)
	}
	if !token.Valid {
		return Payload{}, domain.TokenMalformed(errors.New("token is not valid"))
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Payload{}, domain.TokenMalformed(errors.New("token has no subject"))
	}

	payload := Payload{
		Username: parsed.Subject,
		UserID:   parsed.UserID,
	}
	if parsed.IssuedAt != nil {
		payload.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		payload.ExpiresAt = parsed.ExpiresAt.Time
	}
	return payload, nil
}
