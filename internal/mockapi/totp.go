package mockapi

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"
	"time"
)

const (
	totpDigits = 6
	totpPeriod = 30
	totpSkew   = 1
)

// Code returns the 6 digit TOTP (RFC 6238, SHA1, 30s) for secret at t. Tests and
// the demo use it to play the authenticator app.
func Code(secret []byte, t time.Time) string {
	return hotpCode(sha1.New, secret, t.Unix()/totpPeriod, totpDigits)
}

// verifyTOTP accepts code within one step of now. It returns the matched counter;
// counters at or below last are refused so a code cannot be replayed.
func verifyTOTP(secret []byte, code string, now time.Time, last int64) (int64, bool) {
	if len(secret) == 0 || len(code) != totpDigits {
		return 0, false
	}

	base := now.Unix() / totpPeriod
	for step := int64(-totpSkew); step <= totpSkew; step++ {
		counter := base + step
		if counter < 0 || counter <= last {
			continue
		}
		generated := hotpCode(sha1.New, secret, counter, totpDigits)
		if subtle.ConstantTimeCompare([]byte(generated), []byte(code)) == 1 {
			return counter, true
		}
	}
	return 0, false
}

func hotpCode(newHash func() hash.Hash, secret []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(newHash, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, bin%mod)
}
