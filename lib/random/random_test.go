package random

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBankValues(t *testing.T) {
	assert := require.New(t)
	for x := 0; x < 100; x++ {
		assert.Regexp(regexp.MustCompile(`^[0-9]{6,10}/[0-9]{4}$`), Account())
		assert.Len(Digits(8), 8)
		m := Minor(100, 200)
		assert.True(m >= 100 && m <= 200)
		v := Between(3, 5)
		assert.True(v >= 3 && v <= 5)
		name := Name(2, 3)
		n := len(strings.Fields(name))
		assert.True(n >= 2 && n <= 3, name)
		assert.Equal(strings.ToUpper(name[:1]), name[:1])
	}
	assert.Equal(7, Between(7, 7))
	assert.Equal(7, Between(7, 1))
	assert.Equal("only", Pick([]string{"only"}))
}
