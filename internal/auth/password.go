package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hash algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

const (
	argonMemoryKiB   = 64 * 1024
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16

	// Stored hashes asking for more than this are refused during verification.
	argonMaxMemoryKiB = 256 * 1024
	argonMaxTime      = 10
)

var errMalformedHash = errors.New("malformed password hash")

// PasswordHasher produces and verifies self-describing password digests.
type PasswordHasher struct {
	algorithm  string
	bcryptCost int
	logger     *zap.Logger
}

// NewPasswordHasher builds a hasher. Unknown algorithms fall back to bcrypt.
func NewPasswordHasher(algorithm string, bcryptCost int, logger *zap.Logger) *PasswordHasher {
	if algorithm != AlgorithmArgon2id {
		algorithm = AlgorithmBcrypt
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordHasher{algorithm: algorithm, bcryptCost: bcryptCost, logger: logger}
}

// Hash returns a salted digest of password using the configured algorithm.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	if h.algorithm == AlgorithmArgon2id {
		return hashArgon2id(password)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches digest. Any malformed digest yields false.
func (h *PasswordHasher) Verify(password, digest string) bool {
	var (
		ok  bool
		err error
	)
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		ok, err = verifyArgon2id(password, digest)
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		err = bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false
		}
		ok = err == nil
	default:
		err = errMalformedHash
	}
	if err != nil {
		h.logger.Debug("password digest rejected", zap.Error(err))
		return false
	}
	return ok
}

func hashArgon2id(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonIterations, argonMemoryKiB, argonParallelism, argonKeyLength)
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemoryKiB,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(password, encoded string) (bool, error) {
	// $argon2id$v=19$m=65536,t=2,p=1$<salt>$<hash>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errMalformedHash
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, errMalformedHash
	}
	if memory == 0 || memory > argonMaxMemoryKiB || iterations == 0 || iterations > argonMaxTime || parallelism == 0 {
		return false, fmt.Errorf("%w: parameters out of range", errMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return false, errMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, errMalformedHash
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
