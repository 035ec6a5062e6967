package domain

import (
	"fmt"
	"math/bits"
)

// FingerprintBits is the width of a perceptual fingerprint.
const FingerprintBits = 64

// DefaultSensitivity is the default Hamming distance at which two
// fingerprints are considered different.
const DefaultSensitivity = 8

// Fingerprint is a 64-bit average-hash of a captured window image.
// Bit i is set when grid sample i is brighter than the grid mean.
type Fingerprint uint64

// Distance returns the Hamming distance between two fingerprints.
func (f Fingerprint) Distance(o Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ o))
}

// String renders the fingerprint as 16 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}
