package twofactor

import (
	"fmt"
	"testing"
)

// FuzzSanitizeIdempotent checks that sanitizing an already sanitized value is a
// no-op in both modes, and that the result respects the length caps.
func FuzzSanitizeIdempotent(f *testing.F) {
	f.Add("123456")
	f.Add("1234-5678")
	f.Add("12a34b56c78d9")
	f.Add("----")
	f.Add("")

	f.Fuzz(func(t *testing.T, raw string) {
		totp := SanitizeTOTP(raw)
		if again := SanitizeTOTP(totp); again != totp {
			t.Fatalf("SanitizeTOTP not idempotent: %q -> %q -> %q", raw, totp, again)
		}
		if len(totp) > TOTPLength || !isNumericString(totp) {
			t.Fatalf("SanitizeTOTP(%q) = %q out of shape", raw, totp)
		}

		backup := SanitizeBackupInput(raw)
		if again := SanitizeBackupInput(backup); again != backup {
			t.Fatalf("SanitizeBackupInput not idempotent: %q -> %q -> %q", raw, backup, again)
		}
		if len(backup) > BackupInputLength {
			t.Fatalf("SanitizeBackupInput(%q) = %q exceeds cap", raw, backup)
		}
	})
}

// FuzzBackupCodeRoundTrip checks normalize(format(normalize(x))) == normalize(x)
// for every 8-digit code.
func FuzzBackupCodeRoundTrip(f *testing.F) {
	f.Add(uint32(0))
	f.Add(uint32(12345678))
	f.Add(uint32(99999999))

	f.Fuzz(func(t *testing.T, n uint32) {
		code := fmt.Sprintf("%08d", n%100000000)
		norm := NormalizeBackupCode(code)
		if got := NormalizeBackupCode(FormatBackupCode(norm)); got != norm {
			t.Fatalf("round trip of %q: got %q", code, got)
		}
		if err := ValidateBackupCode(FormatBackupCode(norm)); err != nil {
			t.Fatalf("formatted %q must validate: %v", code, err)
		}
	})
}
