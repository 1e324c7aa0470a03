// Package random generates fake bank data for the simulator
package random

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

var (
	mu  sync.Mutex
	src = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
)

// Between returns random int in [lo,hi]
func Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	mu.Lock()
	defer mu.Unlock()
	return lo + src.Intn(hi-lo+1)
}

// Pick returns random element of non empty a
func Pick[T any](a []T) T {
	return a[Between(0, len(a)-1)]
}
