package personio

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"goattend/attendance"
)

// TokenSource yields the XSRF token that is valid right now.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, error)
}

// JarSession reads the token from a live cookie jar. Every call looks at
// the jar again, so cookies rotated by a session refresh are picked up.
type JarSession struct {
	jar    http.CookieJar
	target *url.URL
}

func NewJarSession(jar http.CookieJar, target *url.URL) *JarSession {
	return &JarSession{jar: jar, target: target}
}

func (s *JarSession) CurrentToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &attendance.AuthError{Reason: "token read cancelled", Err: err}
	}

	values := map[string]string{}
	for _, cookie := range s.jar.Cookies(s.target) {
		if strings.TrimSpace(cookie.Value) != "" {
			values[cookie.Name] = cookie.Value
		}
	}

	token := values[CookieXSRFToken]
	if token == "" {
		return "", &attendance.AuthError{Reason: CookieXSRFToken + " not found; run \"goattend auth login\""}
	}

	missing := make([]string, 0, len(RequiredSessionCookies))
	for _, name := range RequiredSessionCookies {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", &attendance.AuthError{Reason: "missing session cookies: " + strings.Join(missing, ", ")}
	}
	return token, nil
}

// Target is the base URL the session cookies belong to.
func (s *JarSession) Target() *url.URL {
	return s.target
}
