package core

import (
	"encoding/binary"
	"math"

	"github.com/spaolacci/murmur3"
)

// Checksum fingerprints a sequence of samples bit-exactly. Workers use it to
// verify a partition survived transport unchanged.
func Checksum(samples []float64) uint64 {
	h := murmur3.New64()
	var buf [8]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s))
		h.Write(buf[:])
	}
	return h.Sum64()
}
