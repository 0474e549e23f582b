package textutil_test

import (
	"testing"

	"flacfixer/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"cover.jpg", "cover.jpg"},
		{"AC/DC: Back In Black", "AC-DC- Back In Black"},
		{"  what?!  ", "what!"},
		{"a*b|c<d>e", "a-bcde"},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Front Cover", "front-cover"},
		{"  Back -- Cover!  ", "back-cover"},
		{"Disc 2 / Side B", "disc-2-side-b"},
		{"", "picture"},
		{"!!!", "picture"},
	}
	for _, tc := range cases {
		if got := textutil.Slug(tc.in, "picture"); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTernary(t *testing.T) {
	if got := textutil.Ternary(true, "yes", "no"); got != "yes" {
		t.Fatalf("got %q", got)
	}
	if got := textutil.Ternary(false, 1, 2); got != 2 {
		t.Fatalf("got %d", got)
	}
}
