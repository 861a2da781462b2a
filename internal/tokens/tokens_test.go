package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_Length(t *testing.T) {
	for _, n := range []int{FileIDLength, BatchIDLength, 16} {
		assert.Len(t, Generate(n), n)
	}
}

func TestGenerate_Alphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		token := Generate(FileIDLength)
		for _, c := range token {
			assert.True(t, strings.ContainsRune(alphabet, c), "unexpected char %q in %q", c, token)
		}
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[Generate(BatchIDLength)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestParseBatchToken(t *testing.T) {
	id, ok := ParseBatchToken(BatchToken("a1b2c3d4"))
	assert.True(t, ok)
	assert.Equal(t, "a1b2c3d4", id)

	_, ok = ParseBatchToken("a1b2c3")
	assert.False(t, ok)
}
