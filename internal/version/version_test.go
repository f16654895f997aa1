package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortCommit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", shortCommit("abc"))
	assert.Equal(t, "0123456789ab", shortCommit("0123456789abcdef"))
}

func TestResolveFormatFields(t *testing.T) {
	t.Parallel()
	info := Resolve()
	assert.NotEmpty(t, info.Version)
	assert.EqualValues(t, 8, info.IntWidth)
	assert.EqualValues(t, 8, info.MaxNDim)
	assert.EqualValues(t, 32, info.MaxName)
	assert.Contains(t, []string{"little", "big"}, info.Endian)
	assert.True(t, strings.HasPrefix(String(), info.Version))
}
