package gate

import (
	"strings"

	"github.com/chattyapp/chatty-server/pkg/log"
)

const (
	authorizationHeader = "Authorization"
	tokenHeader         = "token"
	bearerPrefix        = "Bearer "
)

// TokenVerifier checks a bearer token's signature and expiry and returns
// the subject (username) it was issued for.
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
}

// Gate authenticates the connect frame of a new duplex-channel session
// before any subscription or publish is permitted. A missing or invalid
// token does not drop the connection; the session simply proceeds without
// a principal and downstream calls requiring identity fail there.
type Gate struct {
	verifier TokenVerifier
}

func New(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authenticate extracts and verifies a bearer token from connect-frame
// headers. The Authorization header takes precedence over the fallback
// token header. Returns the principal and true on success, or "" and
// false when the session stays anonymous.
func (g *Gate) Authenticate(headers map[string]string) (string, bool) {
	token := extractToken(headers)
	if token == "" {
		l := log.L()
		l.Debug().Msg("connect frame carried no token, session is anonymous")
		return "", false
	}

	username, err := g.verifier.ExtractSubject(token)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("invalid token on connect, session is anonymous")
		return "", false
	}

	l := log.L()
	l.Debug().Str(log.FieldUsername, username).Msg("connection authenticated")
	return username, true
}

func extractToken(headers map[string]string) string {
	if bearer := headers[authorizationHeader]; strings.HasPrefix(bearer, bearerPrefix) {
		if token := strings.TrimPrefix(bearer, bearerPrefix); token != "" {
			return token
		}
	}
	return headers[tokenHeader]
}
