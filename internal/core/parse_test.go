package core

import (
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$12.50 USD", 12.50, true},
		{"12.50", 12.50, true},
		{"1,234.56", 1234.56, true},
		{"€ 7", 7, true},
		{"0.00", 0, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"...", 0, false},
	}
	for _, tc := range cases {
		got, err := ParsePrice(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParsePrice(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidPrice) {
				t.Fatalf("ParsePrice(%q) expected ErrInvalidPrice, got %v", tc.in, err)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParsePrice(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParsePercent(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"9%", 9, true},
		{"21.5 %", 21.5, true},
		{"0%", 0, true},
		{"13", 13, true},
		{"%", 0, false},
		{"", 0, false},
		{"VAT 9%", 0, false},
		{"-5%", 0, false},
	}
	for _, tc := range cases {
		got, err := ParsePercent(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParsePercent(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("ParsePercent(%q) expected error", tc.in)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParsePercent(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestUserSetAdd(t *testing.T) {
	s := NewUserSet()
	if err := s.Add("Alice"); err != nil {
		t.Fatalf("add Alice: %v", err)
	}
	if err := s.Add("Bob"); err != nil {
		t.Fatalf("add Bob: %v", err)
	}
	// Duplicate non-empty name is rejected and the set stays unchanged.
	if err := s.Add("Alice"); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 users after duplicate, got %d", s.Len())
	}
	// Empty names are ignored, not errors.
	if err := s.Add(""); err != nil {
		t.Fatalf("empty name should be ignored, got %v", err)
	}
	if err := s.Add("   "); err != nil {
		t.Fatalf("blank name should be ignored, got %v", err)
	}
	got := s.Names()
	if len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Fatalf("unexpected names %v", got)
	}
}
