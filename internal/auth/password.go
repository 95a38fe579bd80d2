package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// MethodPBKDF2 hashes with PBKDF2-HMAC-SHA256.
	MethodPBKDF2 = "pbkdf2:sha256"
	// MethodBcrypt hashes with bcrypt.
	MethodBcrypt = "bcrypt"

	DefaultIterations = 600000
	DefaultSaltLength = 8

	// bcryptMaxPassword is the longest input bcrypt accepts.
	bcryptMaxPassword = 72

	saltChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrUnsupportedHash is returned when a stored hash uses an unknown encoding.
var ErrUnsupportedHash = errors.New("auth: unsupported password hash")

// ErrPasswordTooLong is returned when the configured method cannot hash a
// password of that length.
var ErrPasswordTooLong = errors.New("auth: password too long")

// HasherConfig tunes password hashing cost.
type HasherConfig struct {
	Method     string
	Iterations int
	SaltLength int
	BcryptCost int
}

// Hasher produces and verifies salted one-way password hashes.
//
// PBKDF2 hashes are encoded as "pbkdf2:sha256:<iterations>$<salt>$<hex>",
// the same layout werkzeug writes, so existing user tables stay readable.
// Verify accepts both PBKDF2 and bcrypt encodings whatever Method is set.
type Hasher struct {
	cfg HasherConfig
}

// NewHasher validates cfg and fills defaults.
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	if cfg.Method == "" {
		cfg.Method = MethodPBKDF2
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.SaltLength <= 0 {
		cfg.SaltLength = DefaultSaltLength
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	switch cfg.Method {
	case MethodPBKDF2:
	case MethodBcrypt:
		if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("auth: bcrypt cost %d out of range", cfg.BcryptCost)
		}
	default:
		return nil, fmt.Errorf("auth: unknown password method %q", cfg.Method)
	}
	return &Hasher{cfg: cfg}, nil
}

// Hash returns the encoded hash of password with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	if h.cfg.Method == MethodBcrypt {
		if len(password) > bcryptMaxPassword {
			return "", ErrPasswordTooLong
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cfg.BcryptCost)
		if err != nil {
			return "", fmt.Errorf("auth: bcrypt: %w", err)
		}
		return string(hashed), nil
	}
	salt, err := generateSalt(h.cfg.SaltLength)
	if err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}
	return h.HashWithSalt(password, salt), nil
}

// HashWithSalt returns the PBKDF2 encoding of password under salt.
func (h *Hasher) HashWithSalt(password, salt string) string {
	digest := pbkdf2Hex(password, salt, h.cfg.Iterations)
	return MethodPBKDF2 + ":" + strconv.Itoa(h.cfg.Iterations) + "$" + salt + "$" + digest
}

// Verify reports whether password matches the encoded hash.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	if strings.HasPrefix(encoded, "$2") {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("auth: bcrypt: %w", err)
		}
		return true, nil
	}

	method, salt, digest, ok := splitEncoded(encoded)
	if !ok {
		return false, ErrUnsupportedHash
	}
	iterations, err := parsePBKDF2Method(method)
	if err != nil {
		return false, err
	}
	computed := pbkdf2Hex(password, salt, iterations)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1, nil
}

func splitEncoded(encoded string) (method, salt, digest string, ok bool) {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// parsePBKDF2Method reads "pbkdf2:sha256[:iterations]".
func parsePBKDF2Method(method string) (int, error) {
	fields := strings.Split(method, ":")
	if len(fields) < 2 || fields[0] != "pbkdf2" || fields[1] != "sha256" {
		return 0, ErrUnsupportedHash
	}
	if len(fields) == 2 {
		return DefaultIterations, nil
	}
	iterations, err := strconv.Atoi(fields[2])
	if err != nil || iterations <= 0 {
		return 0, ErrUnsupportedHash
	}
	return iterations, nil
}

func pbkdf2Hex(password, salt string, iterations int) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, sha256.Size, sha256.New)
	return hex.EncodeToString(key)
}

func generateSalt(length int) (string, error) {
	limit := big.NewInt(int64(len(saltChars)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltChars[n.Int64()])
	}
	return b.String(), nil
}
