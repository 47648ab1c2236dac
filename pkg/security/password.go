// Package security hashes back-office passwords with Argon2id. Hashes use
// the PHC string format so the parameters travel with each hash.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/franchisehub/backoffice/pkg/config"
	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidHash signals a malformed Argon2id hash string.
	ErrInvalidHash = errors.New("invalid argon2id hash")
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")
)

var b64 = base64.RawStdEncoding

// Params are the Argon2id cost settings.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig clamps the configured costs to sane bounds.
func ParamsFromConfig(cfg config.PasswordConfig) Params {
	return Params{
		Memory:      uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(clamp(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

type decoded struct {
	params Params
	salt   []byte
	key    []byte
}

// Hasher hashes with one parameter set and verifies any valid Argon2id hash.
type Hasher struct {
	params Params

	dummyOnce sync.Once
	dummy     *decoded
}

func NewHasher(cfg config.PasswordConfig) *Hasher {
	return &Hasher{params: ParamsFromConfig(cfg)}
}

// Hash returns "$argon2id$v=19$m=..,t=..,p=..$salt$key" for password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := derive(password, salt, h.params)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether password matches encoded, using the parameters
// recorded in encoded.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	d, err := decode(encoded)
	if err != nil {
		return false, err
	}
	return matches(password, d), nil
}

// NeedsRehash reports whether encoded was produced with parameters other
// than the configured ones. Unparseable hashes always need a rehash.
func (h *Hasher) NeedsRehash(encoded string) bool {
	d, err := decode(encoded)
	if err != nil {
		return true
	}
	return d.params != h.params
}

// VerifyDummy burns the same work as a real verification so unknown emails
// and wrong passwords take comparable time.
func (h *Hasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		salt := make([]byte, h.params.SaltLen)
		h.dummy = &decoded{params: h.params, salt: salt, key: derive("dummy-password", salt, h.params)}
	})
	_ = matches(password, h.dummy)
}

func derive(password string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

func matches(password string, d *decoded) bool {
	return subtle.ConstantTimeCompare(d.key, derive(password, d.salt, d.params)) == 1
}

func decode(encoded string) (*decoded, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, ErrInvalidHash
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return nil, ErrInvalidHash
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, ErrInvalidHash
	}
	p.SaltLen, p.KeyLen = uint32(len(salt)), uint32(len(key))

	return &decoded{params: p, salt: salt, key: key}, nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
