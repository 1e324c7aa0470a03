package random

import (
	"strings"
	"unicode"
)

// Digits returns string of n random decimal digits
func Digits(n int) string {
	b := strings.Builder{}
	for x := 0; x < n; x++ {
		b.WriteByte(byte('0' + Between(0, 9)))
	}
	return b.String()
}

// Account returns random domestic account number with bank code
func Account() string {
	return Digits(Between(6, 10)) + "/" + Pick([]string{"0100", "0300", "0600", "0800", "2010", "5500"})
}

// Minor returns random amount in minor units in [lo,hi]
func Minor(lo, hi int) int64 {
	return int64(Between(lo, hi))
}

// Name returns random capitalized name of lo to hi words
func Name(lo, hi int) string {
	words := strings.Fields(Words(lo, hi))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// Credit returns true with probability of 1/2
func Credit() bool {
	return Between(0, 1) == 1
}
