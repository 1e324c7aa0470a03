package random

import (
	"strings"

	"github.com/go-loremipsum/loremipsum"
)

var lorem = loremipsum.New()

// Words returns lo to hi lorem ipsum words joined by space
func Words(lo, hi int) string {
	n := Between(lo, hi)
	mu.Lock()
	defer mu.Unlock()
	words := make([]string, 0, n)
	for len(words) < n {
		words = append(words, lorem.Word())
	}
	return strings.Join(words, " ")
}
