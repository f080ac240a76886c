package steam

import (
	"strings"
	"testing"
	"time"
)

// base64("12345678901234567890")
const testSecret = "MTIzNDU2Nzg5MDEyMzQ1Njc4OTA="

func TestGenerateAuthCode(t *testing.T) {
	tests := []struct {
		unix int64
		want string
	}{
		{0, "GG5F5"},
		{1700000000, "R87JJ"},
		{1700000010, "5MWGC"},
		{1700000039, "5MWGC"},
		{1700000040, "NHTB6"},
	}

	for _, tc := range tests {
		got, err := GenerateAuthCode(testSecret, time.Unix(tc.unix, 0))
		if err != nil {
			t.Fatalf("GenerateAuthCode(%d) error = %v", tc.unix, err)
		}
		if got != tc.want {
			t.Errorf("GenerateAuthCode(%d) = %q, want %q", tc.unix, got, tc.want)
		}
		for _, r := range got {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Errorf("code %q contains %q outside the alphabet", got, r)
			}
		}
	}
}

func TestGenerateAuthCode_BadSecret(t *testing.T) {
	if _, err := GenerateAuthCode("not base64!", time.Now()); err == nil {
		t.Fatal("expected error for invalid secret")
	}
}

func TestConfirmationKey(t *testing.T) {
	at := time.Unix(1700000000, 0)

	tests := []struct {
		tag  string
		want string
	}{
		{"list", "C3ExbE2xkrIyPjS2puSfKFqDM78="},
		{"allow", "+DyBq65u5ZJKRi75PrLwE9vklmc="},
	}
	for _, tc := range tests {
		got, err := ConfirmationKey(testSecret, at, tc.tag)
		if err != nil {
			t.Fatalf("ConfirmationKey(%s) error = %v", tc.tag, err)
		}
		if got != tc.want {
			t.Errorf("ConfirmationKey(%s) = %q, want %q", tc.tag, got, tc.want)
		}
	}
}

func TestDeviceID(t *testing.T) {
	want := "android:5c9df5a2-d7de-1e2c-8fc8-766523ca130f"
	if got := DeviceID(testSteamID); got != want {
		t.Errorf("DeviceID() = %q, want %q", got, want)
	}
}
