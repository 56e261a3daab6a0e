package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategoryName(t *testing.T) {
	got, err := normalizeCategoryName("  Electronics ")
	require.NoError(t, err)
	assert.Equal(t, "Electronics", got)

	got, err = normalizeCategoryName("Books")
	require.NoError(t, err)
	assert.Equal(t, "Books", got)
}

func TestNormalizeCategoryNameRejectsEmpty(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := normalizeCategoryName(name)
		assert.Error(t, err, "name %q", name)
	}
}
