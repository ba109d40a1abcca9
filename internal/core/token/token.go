// Package token turns hardware station identifiers into anonymous presence tokens.
//
// A token is the 64-bit FNV-1a digest of the 6 identifier bytes followed by a
// 4 byte session salt, rendered as 16 lowercase hex characters. The salt is
// drawn fresh at boot so tokens from different sessions can never be joined,
// which keeps the aggregates free of anything resembling a persistent id.
package token

import (
	"crypto/rand"
	"fmt"
	"hash/fnv"
)

// IDLen is the number of bytes in a station identifier (a MAC address)
const IDLen = 6

// SaltLen is the number of salt bytes folded into every token
const SaltLen = 4

// Salt is the per-session random salt. A fresh one is drawn at boot and is
// never persisted or transmitted
type Salt [SaltLen]byte

// NewSalt draws a salt from the system CSPRNG
func NewSalt() (Salt, error) {
	var s Salt
	if _, err := rand.Read(s[:]); err != nil {
		return Salt{}, fmt.Errorf("token: draw salt: %w", err)
	}
	return s, nil
}

// MustSalt is NewSalt for boot paths where a dead CSPRNG should stop the agent
func MustSalt() Salt {
	s, err := NewSalt()
	if err != nil {
		panic(err)
	}
	return s
}

// Hasher derives presence tokens for one session
type Hasher struct {
	salt Salt
}

// NewHasher builds a Hasher around the given session salt
func NewHasher(salt Salt) *Hasher {
	return &Hasher{salt: salt}
}

// Token hashes the identifier bytes then the salt bytes through a single
// FNV-1a state and formats the digest as "%016x"
func (h *Hasher) Token(id [IDLen]byte) string {
	d := fnv.New64a()
	_, _ = d.Write(id[:])
	_, _ = d.Write(h.salt[:])
	return fmt.Sprintf("%016x", d.Sum64())
}
