// Package id generates sortable unique identifiers for orders and sessions.
package id

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// New returns a fresh ULID string.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	return ulid.MustNew(ulid.Now(), entropy).String()
}
