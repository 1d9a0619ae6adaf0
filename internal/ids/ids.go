package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	poolMu sync.Mutex
	pool   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier for movements and sessions.
func New() string {
	return NewAt(time.Now())
}

// NewAt stamps the identifier with the given time. Used when provisioning
// historical movements so their ids sort alongside their dates.
func NewAt(t time.Time) string {
	poolMu.Lock()
	defer poolMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), pool).String()
}
