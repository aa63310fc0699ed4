package bridge

import (
	"crypto/rand"
	"fmt"

	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	"github.com/google/uuid"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultIDLength is the length of generated base36 correlation ids.
const DefaultIDLength = 9

// IDGenerator produces correlation ids. Collisions are not detected.
type IDGenerator interface {
	NewID() string
}

// Base36Generator produces short ids over [0-9a-z].
type Base36Generator struct {
	Length int
}

// NewID implements IDGenerator.
func (g Base36Generator) NewID() string {
	n := g.Length
	if n <= 0 {
		n = DefaultIDLength
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("bridge: crypto/rand failed: %v", err))
		}
		for _, b := range buf {
			// 252 is the largest multiple of 36 below 256
			if b >= 252 {
				continue
			}
			out = append(out, base36Alphabet[b%36])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

// UUIDGenerator produces RFC 4122 random ids.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// NewIDGenerator returns the generator for a configured id scheme.
func NewIDGenerator(scheme string, length int) (IDGenerator, error) {
	switch scheme {
	case "", config.IDSchemeBase36:
		return Base36Generator{Length: length}, nil
	case config.IDSchemeUUID:
		return UUIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}
