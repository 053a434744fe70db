package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/skydexapp/skydex/internal/common"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("skydex-test-secret")

	tok, err := GenerateToken("user-42", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	userID, err := GetUserIDFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetUserIDFromToken: %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("userID = %q, want user-42", userID)
	}
}

func TestGetUserIDFromToken_Errors(t *testing.T) {
	t.Parallel()

	secret := []byte("skydex-test-secret")
	valid, err := GenerateToken("user-42", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	expired, err := GenerateToken("user-42", secret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		token  string
		secret []byte
		want   error
	}{
		{"expired token", expired, secret, common.ErrTokenExpired},
		{"wrong secret", valid, []byte("other-secret"), common.ErrInvalidToken},
		{"garbage", "not.a.jwt", secret, common.ErrInvalidToken},
		{"empty", "", secret, common.ErrInvalidToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GetUserIDFromToken(tc.token, tc.secret)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
