package steam

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // the guard protocol is defined over HMAC-SHA1
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Fantasim/looter/internal/config"
)

const (
	codeAlphabet = "23456789BCDFGHJKMNPQRTVWXY"
	codeLength   = 5
	codePeriod   = 30
)

// GenerateAuthCode returns the 5-character guard code for the base64 shared
// secret at time t. Codes rotate every 30 seconds.
func GenerateAuthCode(sharedSecret string, t time.Time) (string, error) {
	key, err := base64.StdEncoding.DecodeString(sharedSecret)
	if err != nil {
		return "", fmt.Errorf("decode shared secret: %w", err)
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(t.Unix()/codePeriod))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	full := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[full%uint32(len(codeAlphabet))]
		full /= uint32(len(codeAlphabet))
	}
	return string(code), nil
}

// ConfirmationKey signs a mobile confirmation request for tag at time t with
// the base64 identity secret.
func ConfirmationKey(identitySecret string, t time.Time, tag string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(identitySecret)
	if err != nil {
		return "", fmt.Errorf("decode identity secret: %w", err)
	}
	if len(tag) > config.ConfirmationKeyMaxTag {
		tag = tag[:config.ConfirmationKeyMaxTag]
	}

	msg := make([]byte, 8, 8+len(tag))
	binary.BigEndian.PutUint64(msg, uint64(t.Unix()))
	msg = append(msg, tag...)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// DeviceID derives the stable mobile device identifier for steamID.
func DeviceID(steamID string) string {
	sum := sha1.Sum([]byte(steamID)) //nolint:gosec // identifier, not a secret
	h := hex.EncodeToString(sum[:])
	return fmt.Sprintf("android:%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}
