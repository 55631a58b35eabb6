// Package randsrc wraps math/rand sources, grounded in the teacher's
// small entropy-wrapper shape but built on a seeded PRNG rather than
// network randomness, to satisfy the kernel's single-master-RNG
// determinism requirement (§5, §8).
package randsrc

import "math/rand"

// Two fixed 64-bit constants used to derive independent substreams for
// modules documented as "not strictly bitwise deterministic across thread
// counts" (psychology, health), mirroring the reference kernel's reset()
// seeding scheme. Each substream is still a deterministic function of the
// master seed, so single-threaded determinism (§8) is preserved.
const (
	PsychologySalt uint64 = 0x9E3779B97F4A7C15
	HealthSalt     uint64 = 0xBF58476D1CE4E5B9
)

// Substream derives a new *rand.Rand seeded from master XOR salt.
func Substream(master int64, salt uint64) *rand.Rand {
	seed := uint64(master) ^ salt
	return rand.New(rand.NewSource(int64(seed)))
}
