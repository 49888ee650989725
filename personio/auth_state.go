package personio

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	CookieXSRFToken       = "ATHENA-XSRF-TOKEN"
	CookieAthenaSession   = "ATHENA_SESSION"
	CookiePersonioSession = "personio_session"
)

// RequiredSessionCookies must be present next to the XSRF token.
var RequiredSessionCookies = []string{CookieAthenaSession, CookiePersonioSession}

// State is the browser storage state written by "auth login".
type State struct {
	Cookies []StateCookie `json:"cookies"`
	Origins []any         `json:"origins"`
}

type StateCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

func DefaultAuthStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".goattend", "personio-auth-state.json"), nil
}

func LoadState(path string) (State, error) {
	content, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return State{}, fmt.Errorf("read auth state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(content, &state); err != nil {
		return State{}, fmt.Errorf("decode auth state file: %w", err)
	}
	return state, nil
}

func SaveState(path string, state State) error {
	if state.Origins == nil {
		state.Origins = []any{}
	}
	content, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directory for auth state: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write auth state file: %w", err)
	}
	return nil
}

// ForHost keeps only cookies that the host would receive.
func (s State) ForHost(host string) State {
	out := State{Cookies: make([]StateCookie, 0, len(s.Cookies)), Origins: s.Origins}
	for _, cookie := range s.Cookies {
		if CookieDomainMatches(cookie.Domain, host) {
			out.Cookies = append(out.Cookies, cookie)
		}
	}
	return out
}

// NewJar seeds a cookie jar with the state cookies that match target.
func NewJar(state State, target *url.URL) (*cookiejar.Jar, error) {
	if target == nil || target.Host == "" {
		return nil, errors.New("target URL is required")
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(state.Cookies))
	for _, stored := range state.Cookies {
		if stored.Name == "" || !CookieDomainMatches(stored.Domain, target.Hostname()) {
			continue
		}
		cookie := &http.Cookie{
			Name:     stored.Name,
			Value:    stored.Value,
			Path:     stored.Path,
			Secure:   stored.Secure,
			HttpOnly: stored.HTTPOnly,
		}
		if strings.HasPrefix(stored.Domain, ".") {
			cookie.Domain = stored.Domain
		}
		if stored.Expires > 0 {
			cookie.Expires = time.Unix(int64(stored.Expires), 0)
		}
		cookies = append(cookies, cookie)
	}
	jar.SetCookies(target, cookies)
	return jar, nil
}

// MergeJar writes the current jar values for target back into the state.
// Cookies the server rotated keep their stored attributes; new ones are
// added as host cookies.
func MergeJar(state State, jar http.CookieJar, target *url.URL) State {
	merged := State{Cookies: append([]StateCookie(nil), state.Cookies...), Origins: state.Origins}
	host := target.Hostname()
	for _, current := range jar.Cookies(target) {
		updated := false
		for i := range merged.Cookies {
			stored := &merged.Cookies[i]
			if stored.Name != current.Name || !CookieDomainMatches(stored.Domain, host) {
				continue
			}
			stored.Value = current.Value
			updated = true
		}
		if !updated {
			merged.Cookies = append(merged.Cookies, StateCookie{
				Name:    current.Name,
				Value:   current.Value,
				Domain:  host,
				Path:    "/",
				Expires: -1,
				Secure:  target.Scheme == "https",
			})
		}
	}
	return merged
}

func CookieDomainMatches(cookieDomain, targetHost string) bool {
	domain := normalizeHost(cookieDomain)
	host := normalizeHost(targetHost)
	if domain == "" || host == "" {
		return false
	}
	return domain == host || strings.HasSuffix(host, "."+domain)
}
