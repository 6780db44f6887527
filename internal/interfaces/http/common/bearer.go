package common

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sngm3741/survey-manager-api/internal/auth"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

// TokenDecoder verifies a raw bearer token.
type TokenDecoder interface {
	Decode(token string) (auth.Payload, error)
}

// ExtractBearer returns the token carried by the Authorization header.
// A missing header is TokenMissing; a wrong scheme or an empty token is TokenMalformed.
func ExtractBearer(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", domain.TokenMissing()
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", domain.TokenMalformed(errors.New("authorization scheme must be Bearer"))
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", domain.TokenMalformed(errors.New("bearer token is empty"))
	}
	return token, nil
}

// RequireBearer rejects requests without a valid token and stores the principal in the context.
func RequireBearer(decoder TokenDecoder, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(decoder, r)
			if err != nil {
				WriteError(logger, w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// OptionalBearer lets anonymous requests through. A token that is present must still be valid.
func OptionalBearer(decoder TokenDecoder, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := authenticate(decoder, r)
			if err != nil {
				WriteError(logger, w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func authenticate(decoder TokenDecoder, r *http.Request) (AuthenticatedUser, error) {
	token, err := ExtractBearer(r)
	if err != nil {
		return AuthenticatedUser{}, err
	}
	payload, err := decoder.Decode(token)
	if err != nil {
		return AuthenticatedUser{}, err
	}
	return AuthenticatedUser{ID: payload.UserID, Username: payload.Username}, nil
}
