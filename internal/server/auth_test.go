package server

import (
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0912345678", "+249912345678"},
		{"+249912345678", "+249912345678"},
		{"249912345678", "+249912345678"},
		{"912345678", "+249912345678"},
		{"091 234 5678", "+249912345678"},
		{"091-234-5678", "+249912345678"},
		{"  0912345678  ", "+249912345678"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizePhone(tt.in); got != tt.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPostedLabel(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Minute, "منذ دقائق"},
		{5 * time.Hour, "منذ 5 ساعة"},
		{3 * 24 * time.Hour, "منذ 3 يوم"},
		{70 * 24 * time.Hour, "منذ 2 شهر"},
	}

	for _, tt := range tests {
		if got := formatPostedLabel(tt.age); got != tt.want {
			t.Errorf("formatPostedLabel(%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}
