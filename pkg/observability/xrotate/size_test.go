package xrotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		n, enabled, err := ParseSize("")
		require.NoError(t, err)
		assert.False(t, enabled)
		assert.Zero(t, n)
	})

	t.Run("BareNumberIsMegabytes", func(t *testing.T) {
		n, enabled, err := ParseSize("2")
		require.NoError(t, err)
		assert.True(t, enabled)
		assert.Equal(t, int64(2*1024*1024), n)
	})

	t.Run("Bytes", func(t *testing.T) {
		n, _, err := ParseSize("20b")
		require.NoError(t, err)
		assert.Equal(t, int64(20), n)
	})

	t.Run("Kilobytes", func(t *testing.T) {
		n, _, err := ParseSize("3k")
		require.NoError(t, err)
		assert.Equal(t, int64(3*1024), n)
	})

	t.Run("MegabytesExplicit", func(t *testing.T) {
		n, _, err := ParseSize("1m")
		require.NoError(t, err)
		assert.Equal(t, int64(1024*1024), n)
	})

	t.Run("Gigabytes", func(t *testing.T) {
		n, _, err := ParseSize("1g")
		require.NoError(t, err)
		assert.Equal(t, int64(1024*1024*1024), n)
	})

	t.Run("CaseInsensitiveUnit", func(t *testing.T) {
		n, _, err := ParseSize("5K")
		require.NoError(t, err)
		assert.Equal(t, int64(5*1024), n)
	})

	t.Run("InvalidUnitRejected", func(t *testing.T) {
		_, _, err := ParseSize("5x")
		assert.ErrorIs(t, err, ErrInvalidSize)
	})

	t.Run("NonNumericRejected", func(t *testing.T) {
		_, _, err := ParseSize("abc")
		assert.ErrorIs(t, err, ErrInvalidSize)
	})
}
