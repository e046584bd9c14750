package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen           = 16
	maxPasswordLength = 1024
)

// Params control the Argon2id cost of newly created hashes. Stored hashes
// carry their own parameters, so existing pastes stay verifiable after a
// cost change.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

// DefaultParams is a moderate interactive-login cost.
var DefaultParams = Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 1,
	KeyLen:  32,
}

// Hasher performs one-way hashing and verification of paste passwords.
type Hasher struct {
	params Params
}

// NewHasher returns a Hasher with the provided cost parameters. Zero fields
// fall back to DefaultParams.
func NewHasher(p Params) *Hasher {
	if p.Time == 0 {
		p.Time = DefaultParams.Time
	}
	if p.Memory == 0 {
		p.Memory = DefaultParams.Memory
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultParams.KeyLen
	}
	return &Hasher{params: p}
}

// Hash hashes the provided password using Argon2id. An empty password hashes
// to an empty string, the "no password stored" representation.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password too long")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	p := h.params
	hash := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads, b64Salt, b64Hash), nil
}

// Verify checks whether the candidate matches the stored hash. An empty
// stored hash means no password is required and any candidate passes.
func (h *Hasher) Verify(encoded, candidate string) (bool, error) {
	if encoded == "" {
		return true, nil
	}
	if len(candidate) > maxPasswordLength {
		return false, nil
	}
	params, salt, expected, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	hash := argon2.IDKey([]byte(candidate), salt, params.Time, params.Memory, params.Threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(hash, expected) == 1, nil
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return Params{}, nil, nil, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return Params{}, nil, nil, errors.New("invalid algorithm")
	}
	var memTmp, timeTmp, threadTmp int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memTmp, &timeTmp, &threadTmp); err != nil {
		return Params{}, nil, nil, fmt.Errorf("parse params: %w", err)
	}
	if memTmp <= 0 || timeTmp <= 0 || threadTmp <= 0 || threadTmp > 255 {
		return Params{}, nil, nil, errors.New("invalid argon params")
	}
	params := Params{
		Memory:  uint32(memTmp),
		Time:    uint32(timeTmp),
		Threads: uint8(threadTmp),
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("decode hash: %w", err)
	}
	return params, salt, hash, nil
}
