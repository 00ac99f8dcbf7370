package indieauth

import "testing"

func TestNormalizeMeURLValid(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://alice.example/", "https://alice.example/"},
		{"https://alice.example", "https://alice.example/"},
		{"alice.example", "http://alice.example/"},
		{"HTTPS://Alice.Example/Home", "https://alice.example/Home"},
		{"https://alice.example/#about", "https://alice.example/"},
		{"  https://alice.example/ ", "https://alice.example/"},
		{"https://github.com/bob", "https://github.com/bob"},
	}
	for _, tc := range cases {
		got, err := NormalizeMeURL(tc.in)
		if err != nil {
			t.Fatalf("NormalizeMeURL(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeMeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeMeURLInvalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not a url at all",
		"ftp://alice.example/",
		"mailto:alice@example.com",
		"https://",
		"javascript:alert(1)",
	}
	for _, in := range cases {
		if got, err := NormalizeMeURL(in); err == nil {
			t.Fatalf("NormalizeMeURL(%q) = %q, want error", in, got)
		}
	}
}

func TestNormalizeMeURLIdempotent(t *testing.T) {
	inputs := []string{
		"alice.example",
		"https://Alice.Example/path?q=1",
		"http://alice.example/#frag",
	}
	for _, in := range inputs {
		once, err := NormalizeMeURL(in)
		if err != nil {
			t.Fatalf("first pass %q: %v", in, err)
		}
		twice, err := NormalizeMeURL(once)
		if err != nil {
			t.Fatalf("second pass %q: %v", once, err)
		}
		if once != twice {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}
