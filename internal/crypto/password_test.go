package crypto

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	record, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(record, "correct-horse-battery-staple") {
		t.Fatal("expected correct password to verify")
	}
	if VerifyPassword(record, "wrong-password") {
		t.Fatal("expected wrong password to fail")
	}
}

func TestVerifyPasswordRejectsMalformedRecord(t *testing.T) {
	cases := []string{"", "not-a-record", "pbkdf2:abc:salt:hash", "pbkdf2:1000:not-hex:also-not-hex"}
	for _, record := range cases {
		if VerifyPassword(record, "anything") {
			t.Fatalf("expected malformed record %q to fail closed", record)
		}
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected an error for an empty password")
	}
}
