package model

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"short message", "Hello there", "Hello there"},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"truncated", strings.Repeat("a", 51), strings.Repeat("a", 50) + "..."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(tt.message)
			if got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestDeriveTitleMultibyte(t *testing.T) {
	message := strings.Repeat("é", 60)
	got := DeriveTitle(message)

	want := strings.Repeat("é", 50) + "..."
	if got != want {
		t.Errorf("multibyte truncation broke a rune boundary: got %q", got)
	}
}
