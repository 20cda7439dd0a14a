package nonce

import (
	"strconv"
	"sync"
	"time"
)

// Setter derives a nonce seed from a wall-clock reading
type Setter func(time.Time) int64

// Seed setters for the resolutions exchanges commonly expect
var (
	Unix      Setter = func(t time.Time) int64 { return t.Unix() }
	UnixMilli Setter = func(t time.Time) int64 { return t.UnixMilli() }
	UnixNano  Setter = func(t time.Time) int64 { return t.UnixNano() }
)

// Value is a generated nonce
type Value int64

// String returns the base 10 representation of the nonce
func (v Value) String() string {
	return strconv.FormatInt(int64(v), 10)
}

// Int64 returns the nonce as an int64
func (v Value) Int64() int64 {
	return int64(v)
}

// Nonce is a strictly increasing counter seeded from wall-clock time. Each
// value is max(previous+1, seed(now)), so rapid calls and clock steps
// backwards never repeat or lower a nonce. The zero value is ready to use.
type Nonce struct {
	mtx sync.Mutex
	n   int64
	now func() time.Time
}

// Get returns the next nonce, seeding from the clock with set
func (n *Nonce) Get(set Setter) Value {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	now := time.Now
	if n.now != nil {
		now = n.now
	}
	next := set(now())
	if next <= n.n {
		next = n.n + 1
	}
	n.n = next
	return Value(next)
}
