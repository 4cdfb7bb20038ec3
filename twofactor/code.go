package twofactor

import (
	"errors"
	"strings"
)

const (
	// TOTPLength is the number of digits in a TOTP code.
	TOTPLength = 6
	// BackupCodeLength is the number of digits in a normalized backup code.
	BackupCodeLength = 8
	// BackupInputLength caps typed backup input, hyphen included (XXXX-XXXX).
	BackupInputLength = BackupCodeLength + 1

	backupHyphenAt = 4
)

// User-facing messages.
const (
	MessageTOTPFormat   = "code must be 6 digits"
	MessageBackupFormat = "backup code must be 8 digits, formatted XXXX-XXXX"
	MessageRejected     = "invalid code, try again"
	MessageFailed       = "verification failed, try again"
)

// ErrInvalidFormat matches every [*FormatError].
var ErrInvalidFormat = errors.New("invalid code format")

// FormatError is a local shape violation. It never involves the network.
type FormatError struct {
	Mode    Mode
	Message string
}

func (e *FormatError) Error() string { return e.Message }

func (e *FormatError) Is(target error) bool { return target == ErrInvalidFormat }

// Mode selects the kind of code being entered.
type Mode uint8

const (
	ModeTOTP Mode = iota
	ModeBackup
)

func (m Mode) String() string {
	if m == ModeBackup {
		return "backup"
	}
	return "totp"
}

// SanitizeTOTP drops every non-digit and truncates to [TOTPLength].
func SanitizeTOTP(raw string) string {
	var b strings.Builder
	b.Grow(TOTPLength)
	for i := 0; i < len(raw) && b.Len() < TOTPLength; i++ {
		if isDigit(raw[i]) {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// SanitizeBackupInput keeps up to eight digits and places the hyphen after the
// fourth one. Typed hyphens are dropped wherever they were, so the result always
// has the XXXX-XXXX shape, or a prefix of it.
//
//	"1234"      -> "1234-"
//	"12345678"  -> "1234-5678"
//	"12-345678" -> "1234-5678"
func SanitizeBackupInput(raw string) string {
	buf := make([]byte, 0, BackupInputLength)
	digits := 0
	for i := 0; i < len(raw) && digits < BackupCodeLength; i++ {
		if !isDigit(raw[i]) {
			continue
		}
		buf = append(buf, raw[i])
		digits++
		if digits == backupHyphenAt {
			buf = append(buf, '-')
		}
	}
	return string(buf)
}

// Sanitize applies the typing rules of mode.
func Sanitize(mode Mode, raw string) string {
	if mode == ModeBackup {
		return SanitizeBackupInput(raw)
	}
	return SanitizeTOTP(raw)
}

// NormalizeBackupCode strips hyphens and surrounding space, giving the form sent to
// the server.
func NormalizeBackupCode(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), "-", "")
}

// FormatBackupCode renders an 8-digit code as XXXX-XXXX. Other inputs are returned
// normalized but otherwise unchanged.
func FormatBackupCode(code string) string {
	n := NormalizeBackupCode(code)
	if len(n) != BackupCodeLength {
		return n
	}
	return n[:backupHyphenAt] + "-" + n[backupHyphenAt:]
}

// ValidateTOTP accepts exactly six decimal digits.
func ValidateTOTP(code string) error {
	if len(code) != TOTPLength || !isNumericString(code) {
		return &FormatError{Mode: ModeTOTP, Message: MessageTOTPFormat}
	}
	return nil
}

// ValidateBackupCode accepts eight decimal digits, either bare or as XXXX-XXXX.
func ValidateBackupCode(code string) error {
	code = strings.TrimSpace(code)
	n := NormalizeBackupCode(code)
	hyphens := strings.Count(code, "-")
	misplaced := hyphens > 1 || (hyphens == 1 && (len(code) != BackupInputLength || code[backupHyphenAt] != '-'))
	if misplaced || len(n) != BackupCodeLength || !isNumericString(n) {
		return &FormatError{Mode: ModeBackup, Message: MessageBackupFormat}
	}
	return nil
}

// Validate checks code against the rules of mode.
func Validate(mode Mode, code string) error {
	if mode == ModeBackup {
		return ValidateBackupCode(code)
	}
	return ValidateTOTP(code)
}

// Normalize returns the wire form of code for mode.
func Normalize(mode Mode, code string) string {
	if mode == ModeBackup {
		return NormalizeBackupCode(code)
	}
	return code
}

// CanSubmit reports whether input is long enough to enable submission: six
// characters for TOTP, eight digits for backup codes.
func CanSubmit(mode Mode, input string) bool {
	if mode == ModeBackup {
		return len(NormalizeBackupCode(input)) >= BackupCodeLength
	}
	return len(input) == TOTPLength
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNumericString(v string) bool {
	for i := 0; i < len(v); i++ {
		if !isDigit(v[i]) {
			return false
		}
	}
	return true
}
