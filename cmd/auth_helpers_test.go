package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveAuthStatePath(t *testing.T) {
	t.Parallel()

	got, err := resolveAuthStatePath(" /tmp/flag.json ", "/tmp/config.json")
	if err != nil || got != "/tmp/flag.json" {
		t.Fatalf("expected flag path, got %q (%v)", got, err)
	}

	got, err = resolveAuthStatePath("", "/tmp/config.json")
	if err != nil || got != "/tmp/config.json" {
		t.Fatalf("expected configured path, got %q (%v)", got, err)
	}

	got, err = resolveAuthStatePath("", "")
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if !filepath.IsAbs(got) || !strings.Contains(got, ".goattend") {
		t.Fatalf("unexpected default path: %q", got)
	}
}

func TestResolveInstanceURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		override   string
		configured string
		want       string
		wantErr    bool
	}{
		{name: "configured host", configured: "acme.app.personio.com", want: "https://acme.app.personio.com"},
		{name: "override wins", override: "other.app.personio.com", configured: "acme.app.personio.com", want: "https://other.app.personio.com"},
		{name: "full url keeps scheme", override: "http://127.0.0.1:8080/login", want: "http://127.0.0.1:8080"},
		{name: "missing", wantErr: true},
		{name: "no host", override: "https://", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveInstanceURL(tc.override, tc.configured)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got.String())
			}
		})
	}
}
