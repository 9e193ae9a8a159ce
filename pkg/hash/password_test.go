package hash

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "SecurePass123!", false},
		{"minimum length password", "Pass123!", false},
		{"password too short", "short", true},
		{"empty password", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Hash(tt.password)

			if tt.wantErr {
				if err == nil {
					t.Error("Hash() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("Hash() unexpected error = %v", err)
			}
			if h == "" || h == tt.password {
				t.Errorf("Hash() returned invalid hash %q", h)
			}
			if !strings.HasPrefix(h, "$2a$12$") {
				t.Errorf("Hash() invalid bcrypt format, got = %s", h[:10])
			}
		})
	}
}

func TestHashSalted(t *testing.T) {
	password := "SamePassword123!"

	hash1, err := Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hash2, err := Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if hash1 == hash2 {
		t.Error("Hash() should generate different hashes for the same password")
	}
}

func TestCompare(t *testing.T) {
	password := "MySecurePassword123!"
	h, err := Hash(password)
	if err != nil {
		t.Fatalf("failed to generate hash: %v", err)
	}

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"correct password", password, false},
		{"incorrect password", "WrongPassword", true},
		{"empty password", "", true},
		{"case sensitive", strings.ToUpper(password), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Compare(h, tt.password)
			if tt.wantErr && err == nil {
				t.Error("Compare() expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Compare() unexpected error = %v", err)
			}
		})
	}
}
