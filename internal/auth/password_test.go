package auth

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	for _, algorithm := range []string{AlgorithmBcrypt, AlgorithmArgon2id} {
		t.Run(algorithm, func(t *testing.T) {
			h := NewPasswordHasher(algorithm, bcrypt.MinCost, zaptest.NewLogger(t))

			digest, err := h.Hash("secret123")
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			if strings.Contains(digest, "secret123") {
				t.Fatalf("digest leaks plaintext")
			}
			if !h.Verify("secret123", digest) {
				t.Fatalf("expected password to verify")
			}
			if h.Verify("wrong_password", digest) {
				t.Fatalf("wrong password verified")
			}

			again, err := h.Hash("secret123")
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			if again == digest {
				t.Fatalf("digests must be salted")
			}
		})
	}
}

func TestPasswordHasherVerifiesEitherAlgorithm(t *testing.T) {
	argonHasher := NewPasswordHasher(AlgorithmArgon2id, 0, nil)
	bcryptHasher := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost, nil)

	digest, err := argonHasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$m=65536,t=2,p=1$") {
		t.Fatalf("unexpected argon2id encoding: %s", digest)
	}
	if !bcryptHasher.Verify("secret123", digest) {
		t.Fatalf("bcrypt-configured hasher should still verify argon2id digests")
	}
}

func TestPasswordHasherRejectsMalformedDigests(t *testing.T) {
	h := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost, zaptest.NewLogger(t))

	cases := []string{
		"",
		"plaintext",
		"$2a$04$short",
		"$argon2id$v=19$m=65536,t=2,p=1$onlysalt",
		"$argon2id$v=18$m=65536,t=2,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=99999999,t=2,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=65536,t=2,p=1$!!!$aGFzaGhhc2g",
	}
	for _, digest := range cases {
		if h.Verify("secret123", digest) {
			t.Fatalf("malformed digest %q verified", digest)
		}
	}
}

func TestPasswordHasherRejectsEmptyPassword(t *testing.T) {
	h := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost, nil)
	if _, err := h.Hash(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
