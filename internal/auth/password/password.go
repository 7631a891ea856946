package password

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
	saltLen = 16
	keyLen  = 32
	scheme  = "argon2id"
)

var errMalformed = errors.New("malformed password hash")

// params are the Argon2id cost settings stored alongside each hash so old
// hashes keep verifying after the defaults change.
type params struct {
	memory  uint32
	time    uint32
	threads uint8
}

var defaultParams = params{memory: 64 * 1024, time: 1, threads: 4}

type encoded struct {
	params
	salt []byte
	key  []byte
}

func (e encoded) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		scheme, argon2.Version,
		e.memory, e.time, e.threads,
		base64.RawStdEncoding.EncodeToString(e.salt),
		base64.RawStdEncoding.EncodeToString(e.key),
	)
}

func decode(s string) (encoded, error) {
	var out encoded

	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != scheme {
		return out, errMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return out, errMalformed
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.memory, &out.time, &out.threads); err != nil {
		return out, errMalformed
	}
	if out.memory == 0 || out.time == 0 || out.threads == 0 {
		return out, errMalformed
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return out, errMalformed
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.key) == 0 {
		return out, errMalformed
	}
	return out, nil
}

func derive(plain string, p params, salt []byte, n uint32) []byte {
	return argon2.IDKey([]byte(plain), salt, p.time, p.memory, p.threads, n)
}

// Hash returns a PHC-style Argon2id string with a random salt.
func Hash(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return encoded{
		params: defaultParams,
		salt:   salt,
		key:    derive(plain, defaultParams, salt, keyLen),
	}.String(), nil
}

// Verify reports whether plain matches the stored hash. Malformed hashes
// never match.
func Verify(plain, stored string) bool {
	e, err := decode(stored)
	if err != nil {
		return false
	}
	check := derive(plain, e.params, e.salt, uint32(len(e.key)))
	return subtle.ConstantTimeCompare(e.key, check) == 1
}

var decoySalt = make([]byte, saltLen)

// Burn spends the same work as a Verify against a real account, so an
// unknown email answers no faster than a wrong password.
func Burn(plain string) {
	_ = derive(plain, defaultParams, decoySalt, keyLen)
}
