package twofactor

import (
	"errors"
	"testing"
)

func TestSanitizeTOTP(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"123456":     "123456",
		"12 34 56":   "123456",
		"1234567":    "123456",
		"ab1c2d3":    "123",
		"12-34-56-7": "123456",
	}
	for in, want := range cases {
		if got := SanitizeTOTP(in); got != want {
			t.Fatalf("SanitizeTOTP(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeBackupInput(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"123":         "123",
		"1234":        "1234-",
		"12345":       "1234-5",
		"12345678":    "1234-5678",
		"123456789":   "1234-5678",
		"1234-5678":   "1234-5678",
		"12-345678":   "1234-5678",
		"1234--56":    "1234-56",
		"ab12cd34ef5": "1234-5",
		"-1234":       "1234-",
		"12-":         "12",
		"123456789-":  "1234-5678",
	}
	for in, want := range cases {
		if got := SanitizeBackupInput(in); got != want {
			t.Fatalf("SanitizeBackupInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateTOTP(t *testing.T) {
	if err := ValidateTOTP("123456"); err != nil {
		t.Fatalf("expected 123456 to pass, got %v", err)
	}
	for _, in := range []string{"12345", "1234a6", "1234567", ""} {
		err := ValidateTOTP(in)
		if !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("ValidateTOTP(%q): expected ErrInvalidFormat, got %v", in, err)
		}
		var fe *FormatError
		if !errors.As(err, &fe) || fe.Mode != ModeTOTP || fe.Message != MessageTOTPFormat {
			t.Fatalf("ValidateTOTP(%q): unexpected error %#v", in, err)
		}
	}
}

func TestValidateBackupCode(t *testing.T) {
	for _, in := range []string{"1234-5678", "12345678"} {
		if err := ValidateBackupCode(in); err != nil {
			t.Fatalf("ValidateBackupCode(%q): expected pass, got %v", in, err)
		}
	}
	for _, in := range []string{"1234567", "1234-567", "1234-56789", "abcd-efgh", "12-34-5678", "12-345678", "-12345678", "12345678-", "123-45678", ""} {
		err := ValidateBackupCode(in)
		var fe *FormatError
		if !errors.As(err, &fe) || fe.Mode != ModeBackup || fe.Message != MessageBackupFormat {
			t.Fatalf("ValidateBackupCode(%q): unexpected error %#v", in, err)
		}
	}
}

func TestFormatAndNormalizeBackupCode(t *testing.T) {
	if got := FormatBackupCode("12345678"); got != "1234-5678" {
		t.Fatalf("FormatBackupCode: got %q", got)
	}
	if got := FormatBackupCode("1234-5678"); got != "1234-5678" {
		t.Fatalf("FormatBackupCode idempotence: got %q", got)
	}
	if got := FormatBackupCode("123"); got != "123" {
		t.Fatalf("FormatBackupCode short input: got %q", got)
	}
	if got := NormalizeBackupCode(" 1234-5678 "); got != "12345678" {
		t.Fatalf("NormalizeBackupCode: got %q", got)
	}
	if got := Normalize(ModeTOTP, "123456"); got != "123456" {
		t.Fatalf("Normalize TOTP must pass through, got %q", got)
	}
}

func TestCanSubmit(t *testing.T) {
	cases := []struct {
		mode  Mode
		input string
		want  bool
	}{
		{ModeTOTP, "12345", false},
		{ModeTOTP, "123456", true},
		{ModeBackup, "1234-567", false},
		{ModeBackup, "1234-5678", true},
		{ModeBackup, "12345678", true},
	}
	for _, tc := range cases {
		if got := CanSubmit(tc.mode, tc.input); got != tc.want {
			t.Fatalf("CanSubmit(%s, %q) = %v, want %v", tc.mode, tc.input, got, tc.want)
		}
	}
}
