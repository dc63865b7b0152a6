// Package entropy supplies seeds for the tiling's random source.
// Growth itself only ever reads from a seeded *rand.Rand so that any run can
// be replayed from its logged seed.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Seed returns a non-zero seed from crypto/rand.
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a fixed seed.
		return 1
	}
	// Keep it positive so it reads well in logs and flags.
	s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if s == 0 {
		return 1
	}
	return s
}

// Resolve returns seed unchanged unless it is zero, in which case a fresh
// seed is drawn.
func Resolve(seed int64) int64 {
	if seed == 0 {
		return Seed()
	}
	return seed
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// Derive returns an independent seed for a named stream, so the selector and
// the palette do not consume each other's draws.
func Derive(seed int64, stream uint64) int64 {
	// splitmix64 finaliser
	z := uint64(seed) + stream*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z >> 1)
}
