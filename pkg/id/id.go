// Package id mints the identifiers used for strategies and orders.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// generator hands out ULIDs with monotonic entropy, so ids minted within the
// same millisecond still sort in mint order.
type generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newGenerator() *generator {
	// Seed a PRNG from crypto/rand so the entropy is unpredictable.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &generator{entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

func (g *generator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), g.entropy).String()
}

var defaultGenerator = newGenerator()

// New returns a time-sortable ULID string. Strategy and order ids minted here
// sort by staging time, which keeps ledger listings and journal indexes in
// lifecycle order without a separate sequence column.
func New() string {
	return defaultGenerator.next()
}
