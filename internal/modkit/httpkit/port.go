package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	perr "gitpulse/internal/platform/errors"
)

// TokenFunc maps a bearer token to a user id
type TokenFunc func(token string) (userID string, err error)

// Port implements middleware.AuthPort over the Authorization header
type Port struct{ parse TokenFunc }

// StaticTokens accepts any of tokens, blank entries are ignored
// the user id is admin-N where N is the token's position
// with no usable tokens every request is rejected
func StaticTokens(tokens []string) *Port {
	var keep [][]byte
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			keep = append(keep, []byte(t))
		}
	}
	return &Port{parse: func(raw string) (string, error) {
		got := []byte(raw)
		for i, want := range keep {
			if subtle.ConstantTimeCompare(got, want) == 1 {
				return "admin-" + strconv.Itoa(i), nil
			}
		}
		return "", perr.Unauthorizedf("unknown token")
	}}
}

// Parse reads "Bearer <token>", the scheme is case insensitive
func (p *Port) Parse(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	if p == nil || p.parse == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	uid, err := p.parse(token)
	if err != nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return uid, nil
}
