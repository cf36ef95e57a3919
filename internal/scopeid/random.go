package scopeid

import (
	"crypto/rand"
	"crypto/sha256"
	"sync"
)

// A deterministic byte stream derived by repeatedly hashing a rolling seed:
// seed = sha256(seed), and each new seed is appended to the output. Every call
// consumes the stream, so the order of calls decides which bytes each caller
// gets. The mutex makes each call one atomic step of the sequence.
type Random struct {
	mutex sync.Mutex
	seed  []byte
}

// A nil or empty seed is replaced with 32 bytes from the system's secure
// random source, which makes the stream unpredictable across builds.
func NewRandom(seed []byte) *Random {
	if len(seed) == 0 {
		seed = make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			panic(err)
		}
	}
	return &Random{seed: append([]byte(nil), seed...)}
}

func (r *Random) Next(n int) []byte {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	result := make([]byte, 0, n+sha256.Size)
	for len(result) < n {
		sum := sha256.Sum256(r.seed)
		r.seed = sum[:]
		result = append(result, sum[:]...)
	}
	return result[:n]
}
