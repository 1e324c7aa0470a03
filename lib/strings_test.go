package lib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsURI(t *testing.T) {
	testCases := []struct {
		desc string
		in   string
		ok   bool
	}{
		{desc: "https", in: "https://bank.example/download/1", ok: true},
		{desc: "with query", in: "https://bank.example/d?id=1&x=2", ok: true},
		{desc: "plain words", in: "not a url"},
		{desc: "no scheme", in: "bank.example/download"},
		{desc: "no host", in: "file:///etc/passwd"},
		{desc: "empty", in: ""},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			require.Equal(t, tC.ok, IsURI(tC.in))
		})
	}
}

func TestTruncateAndChunks(t *testing.T) {
	assert := require.New(t)
	assert.Equal("Příl", Truncate("Příliš", 4))
	assert.Equal("abc", Truncate("abc", 16))
	assert.Equal("", Truncate("abc", 0))
	assert.Equal([]string{"abc", "def", "g"}, Chunks("abcdefg", 3))
	assert.Empty(Chunks("", 3))
}

func TestIsIBAN(t *testing.T) {
	assert := require.New(t)
	assert.True(IsIBAN("DE89370400440532013000"))
	assert.True(IsIBAN("CZ65 0800 0000 1920 0014 5399"))
	assert.False(IsIBAN("DE89370400440532013001"))
	assert.False(IsIBAN("not an iban"))
}
