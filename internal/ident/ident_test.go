package ident_test

import (
	"testing"

	"github.com/mwhitford/handoff/internal/ident"
)

func TestGenerateID_LengthAndCharset(t *testing.T) {
	id := ident.GenerateID()
	if len(id) != 16 {
		t.Fatalf("GenerateID() length = %d, want 16", len(id))
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Errorf("GenerateID() contains non-hex char %q", c)
		}
	}
}

func TestGenerateID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := ident.GenerateID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Handoff", "hndf"},
		{"My Cool Project", "mcp"},
		{"Auth Service Rewrite For Billing", "asrf"}, // capped at 4 initials
		{"api", "api"}, // fewer than 2 consonants keeps the raw word
		{"backend", "bckn"},
		{"Tasks", "tsks"},
		{"café", "cf"},
		{"", "prj"},
		{"!!!", "prj"},
		{"a1 b2", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ident.GenerateSlug(tt.name)
			if got != tt.want {
				t.Errorf("GenerateSlug(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestGenerateSlug_ShortConsonantWordKeepsPrefix(t *testing.T) {
	// "io" has fewer than two consonants, so the first characters survive.
	got := ident.GenerateSlug("io")
	if got != "io" {
		t.Errorf("GenerateSlug(%q) = %q, want %q", "io", got, "io")
	}
}

func TestDisambiguate_NoCollision(t *testing.T) {
	got := ident.Disambiguate("hnd", func(string) bool { return false })
	if got != "hnd" {
		t.Errorf("Disambiguate = %q, want hnd", got)
	}
}

func TestDisambiguate_NumericSuffixes(t *testing.T) {
	taken := map[string]bool{"hnd": true, "hnd2": true}
	got := ident.Disambiguate("hnd", func(s string) bool { return taken[s] })
	if got != "hnd3" {
		t.Errorf("Disambiguate = %q, want hnd3", got)
	}
}
