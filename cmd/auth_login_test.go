package cmd

import (
	"strings"
	"testing"

	"github.com/chromedp/cdproto/network"

	"goattend/personio"
)

func personioCookies(domain string) []*network.Cookie {
	return []*network.Cookie{
		{Name: personio.CookieXSRFToken, Value: "xsrf", Domain: domain, Path: "/"},
		{Name: personio.CookieAthenaSession, Value: "athena", Domain: domain, Path: "/"},
		{Name: personio.CookiePersonioSession, Value: "session", Domain: domain, Path: "/"},
	}
}

func TestHasRequiredSessionCookies(t *testing.T) {
	t.Parallel()

	host := "acme.app.personio.com"
	if !hasRequiredSessionCookies(personioCookies(host), host) {
		t.Fatalf("expected required cookies to be detected")
	}
}

func TestHasRequiredSessionCookies_MissingCookie(t *testing.T) {
	t.Parallel()

	host := "acme.app.personio.com"
	for drop := 0; drop < 3; drop++ {
		cookies := personioCookies(host)
		name := cookies[drop].Name
		cookies = append(cookies[:drop], cookies[drop+1:]...)
		if hasRequiredSessionCookies(cookies, host) {
			t.Fatalf("did not expect success when %s is missing", name)
		}
	}
}

func TestHasRequiredSessionCookies_IgnoresEmptyValues(t *testing.T) {
	t.Parallel()

	host := "acme.app.personio.com"
	cookies := personioCookies(host)
	cookies[0].Value = " "
	if hasRequiredSessionCookies(cookies, host) {
		t.Fatalf("did not expect success with an empty XSRF token")
	}
}

func TestHasRequiredSessionCookies_AnyHostMode(t *testing.T) {
	t.Parallel()

	if !hasRequiredSessionCookies(personioCookies(".acme.app.personio.com"), "") {
		t.Fatalf("expected cookie detection without host filter")
	}
	if hasRequiredSessionCookies(personioCookies("other.example.com"), "acme.app.personio.com") {
		t.Fatalf("did not expect cookies of another host to count")
	}
}

func TestFindSessionCookieHost(t *testing.T) {
	t.Parallel()

	cookies := personioCookies(".acme.app.personio.com")
	cookies = append(cookies, &network.Cookie{Name: personio.CookieXSRFToken, Value: "x", Domain: "example.com", Path: "/"})

	got := findSessionCookieHost(cookies)
	if got != "acme.app.personio.com" {
		t.Fatalf("unexpected host: %q", got)
	}
}

func TestFindSessionCookieHost_Incomplete(t *testing.T) {
	t.Parallel()

	cookies := []*network.Cookie{
		{Name: personio.CookieXSRFToken, Value: "xsrf", Domain: "acme.app.personio.com", Path: "/"},
	}
	if got := findSessionCookieHost(cookies); got != "" {
		t.Fatalf("expected no host, got %q", got)
	}
}

func TestSummarizeCookieInventory(t *testing.T) {
	t.Parallel()

	cookies := personioCookies(".acme.app.personio.com")
	cookies = append(cookies, &network.Cookie{Name: "ESTSAUTH", Domain: ".login.microsoftonline.com"})

	summary := summarizeCookieInventory(cookies)
	if !strings.Contains(summary, "cookies=4") {
		t.Fatalf("unexpected summary: %q", summary)
	}
	if !strings.Contains(summary, "acme.app.personio.com=[") {
		t.Fatalf("expected personio domain in summary: %q", summary)
	}
	if !strings.Contains(summary, personio.CookieXSRFToken) {
		t.Fatalf("expected XSRF cookie in summary: %q", summary)
	}
	if summarizeCookieInventory(nil) != "cookies=0" {
		t.Fatalf("unexpected empty summary")
	}
}

func TestFilterCookiesForHost(t *testing.T) {
	t.Parallel()

	cookies := personioCookies(".acme.app.personio.com")
	cookies[1].HTTPOnly = true
	cookies[1].Secure = true
	cookies[1].Expires = 1767225600
	cookies = append(cookies, &network.Cookie{Name: "tracking", Value: "t", Domain: "ads.example.com", Path: "/"}, nil)

	got := filterCookiesForHost(cookies, "acme.app.personio.com")
	if len(got) != 3 {
		t.Fatalf("expected 3 cookies, got %d", len(got))
	}
	athena := got[1]
	if athena.Name != personio.CookieAthenaSession || !athena.HTTPOnly || !athena.Secure {
		t.Fatalf("unexpected cookie: %+v", athena)
	}
	if athena.Expires != 1767225600 {
		t.Fatalf("unexpected expiry: %v", athena.Expires)
	}
}
