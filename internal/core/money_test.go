package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"15.", 1500, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1000000001", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseLimitAllowsZero(t *testing.T) {
	m, err := ParseLimit("0")
	if err != nil || m.Cents != 0 {
		t.Fatalf("expected zero limit, got %d (err=%v)", m.Cents, err)
	}
	if _, err := ParseLimit("-5"); err == nil {
		t.Fatalf("expected negative limit to fail")
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:         "$0.00",
		5:         "$0.05",
		1550:      "$15.50",
		123456789: "$1,234,567.89",
		-2500:     "-$25.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: expected %q, got %q", cents, want, got)
		}
	}
	if got := (Money{Cents: 1550}).Plain(); got != "15.50" {
		t.Fatalf("expected plain 15.50, got %q", got)
	}
}
