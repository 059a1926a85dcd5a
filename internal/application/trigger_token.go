package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidTriggerToken is returned when a presented trigger token does not match the configured hash.
	ErrInvalidTriggerToken = errors.New("application: invalid trigger token")
	// ErrInvalidTokenHash is returned when the configured hash is not in PHC argon2id form.
	ErrInvalidTokenHash = errors.New("invalid trigger token hash format")
	// ErrIncompatibleTokenVersion is returned for hashes produced by another argon2 version.
	ErrIncompatibleTokenVersion = errors.New("incompatible trigger token hash version")
)

// Argon2idParams tunes trigger token hashing.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashTriggerToken derives an encoded argon2id hash for token, suitable for
// CLEANOPS_TRIGGER_TOKEN_HASH.
func HashTriggerToken(token string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(token), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format is $argon2id$v=19$m=...,t=...,p=...$salt$hash
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

// TokenVerifier checks presented trigger tokens against a decoded hash.
type TokenVerifier struct {
	params Argon2idParams
	salt   []byte
	hash   []byte
}

// NewTokenVerifier decodes encoded once so each verification only derives the key.
func NewTokenVerifier(encoded string) (*TokenVerifier, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, ErrInvalidTokenHash
	}

	if parts[1] != "argon2id" {
		return nil, ErrInvalidTokenHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}
	if version != argon2.Version {
		return nil, ErrIncompatibleTokenVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}
	params.SaltLength = uint32(len(salt))

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}
	params.KeyLength = uint32(len(decodedHash))

	return &TokenVerifier{params: params, salt: salt, hash: decodedHash}, nil
}

// Verify returns ErrInvalidTriggerToken unless token matches.
func (v *TokenVerifier) Verify(token string) error {
	if v == nil || token == "" {
		return ErrInvalidTriggerToken
	}
	comparisonHash := argon2.IDKey([]byte(token), v.salt, v.params.Iterations, v.params.Memory, v.params.Parallelism, v.params.KeyLength)

	if subtle.ConstantTimeCompare(v.hash, comparisonHash) == 1 {
		return nil
	}

	return ErrInvalidTriggerToken
}
