package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("Hash() = %q, want a $2a$ bcrypt hash", hash)
	}
}

func TestHash_SaltsEachHash(t *testing.T) {
	ps := newTestPasswordService()

	h1, _ := ps.Hash("same-password")
	h2, _ := ps.Hash("same-password")
	if h1 == h2 {
		t.Error("two hashes of the same password should differ")
	}
}

func TestHash_LengthLimits(t *testing.T) {
	ps := newTestPasswordService()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "too short", input: "abc", wantErr: true},
		{name: "minimum", input: strings.Repeat("a", MinPasswordLength)},
		{name: "exactly 72 bytes", input: strings.Repeat("a", 72)},
		{name: "73 bytes", input: strings.Repeat("a", 73), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ps.Hash(tt.input)
			if tt.wantErr && !errors.Is(err, ErrPasswordLength) {
				t.Errorf("Hash() error = %v, want ErrPasswordLength", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Hash() unexpected error = %v", err)
			}
		})
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("correct-horse")
	if err != nil {
		t.Fatal(err)
	}

	if err := ps.Verify(hash, "correct-horse"); err != nil {
		t.Errorf("Verify(correct) error = %v", err)
	}
	if err := ps.Verify(hash, "wrong-horse"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Verify(wrong) error = %v, want ErrInvalidPassword", err)
	}
	if err := ps.Verify("not-a-bcrypt-hash", "anything"); err == nil || errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Verify(garbage hash) error = %v, want a non-mismatch error", err)
	}
}
