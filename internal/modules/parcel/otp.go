// README: Delivery OTP generation and verification. 6-digit, single-use, time-boxed.
package parcel

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// GenerateOTP returns a uniformly distributed 6-digit numeric code.
func GenerateOTP() string {
	span := uint64(otpMax - otpMin + 1)
	// Rejection sampling keeps the distribution uniform over the span.
	limit := (^uint64(0) / span) * span
	for {
		var b [8]byte
		_, _ = rand.Read(b[:])
		v := binary.BigEndian.Uint64(b[:])
		if v >= limit {
			continue
		}
		n := otpMin + int(v%span)
		return formatOTP(n)
	}
}

func formatOTP(n int) string {
	buf := [6]byte{}
	for i := 5; i >= 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[:])
}

// VerifyOTP checks the supplied code against the parcel's open
// delivery-confirmation window. Each failure mode is a distinct error so
// callers (and users) can tell "no window open" from "expired" from
// "wrong code". A mismatch does not consume the stored code.
func (p *Parcel) VerifyOTP(code string, now time.Time) error {
	if p.DeliveryOTP == nil || p.OTPExpiresAt == nil {
		return ErrOTPMissing
	}
	if now.After(*p.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if *p.DeliveryOTP != code {
		return ErrOTPMismatch
	}
	return nil
}
