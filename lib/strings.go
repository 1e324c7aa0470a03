package lib

import (
	"net/url"
	"regexp"
	"strings"
)

var reValidID = regexp.MustCompile("^[a-zA-Z0-9][a-zA-Z0-9-_.]*$")

func IsValidID(s string) bool {
	if !reValidID.MatchString(s) {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	return true
}

// IsURI returns true for absolute uri with scheme and host,
// like https://bank.example/files/123
func IsURI(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Truncate returns at most n runes of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Chunks splits s to pieces of at most n runes
func Chunks(s string, n int) []string {
	r := []rune(s)
	a := []string{}
	for len(r) > n {
		a = append(a, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		a = append(a, string(r))
	}
	return a
}
