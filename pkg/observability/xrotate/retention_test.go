package xrotate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRemoveOldFiles_ModeA(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")
	policy := retentionPolicy{count: 1, base: base}

	var created []string
	for i := 1; i <= 4; i++ {
		name := buildFileName(base, "", i, "log")
		writeFile(t, name, "x")
		var err error
		created, err = removeOldFiles(context.Background(), policy, created, name)
		require.NoError(t, err)
	}

	// active + count(1) retained: only the last two files survive.
	assert.Len(t, created, 2)
	for _, f := range created {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
	_, err := os.Stat(buildFileName(base, "", 1, "log"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(buildFileName(base, "", 2, "log"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveOldFiles_ModeB(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")

	writeFile(t, filepath.Join(dir, "notLogFile"), "stray")
	oldest := base + ".1"
	middle := base + ".2"
	newest := base + ".3"
	writeFile(t, oldest, "a")
	writeFile(t, middle, "b")
	writeFile(t, newest, "c")

	policy := retentionPolicy{count: 2, removeOther: true, base: base}

	_, err := removeOldFiles(context.Background(), policy, nil, newest)
	require.NoError(t, err)

	_, statErr := os.Stat(oldest)
	assert.True(t, os.IsNotExist(statErr), "oldest matching file should be removed")
	_, statErr = os.Stat(middle)
	assert.NoError(t, statErr)
	_, statErr = os.Stat(newest)
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, "notLogFile"))
	assert.NoError(t, statErr, "non-matching files are never removed")
}

func TestRemoveOldFiles_ModeB_DateOrdering(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")
	dateFormat := "HH-mm-ss-S"

	t0 := "00-00-00-1"
	t1 := "00-00-01-0"

	writeFile(t, filepath.Join(dir, "notLogFile"), "stray")
	f1 := buildFileName(base, t0, 1, "")
	f2 := buildFileName(base, t1, 1, "")
	f3 := buildFileName(base, t1, 2, "")
	f4 := buildFileName(base, t1, 3, "")
	writeFile(t, f1, "a")
	writeFile(t, f2, "b")
	writeFile(t, f3, "c")
	writeFile(t, f4, "d")

	policy := retentionPolicy{count: 2, removeOther: true, base: base, dateFormat: dateFormat}

	_, err := removeOldFiles(context.Background(), policy, nil, f4)
	require.NoError(t, err)
	_, err = removeOldFiles(context.Background(), policy, nil, f4)
	require.NoError(t, err)

	_, statErr := os.Stat(f1)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(f2)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(f3)
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, "notLogFile"))
	assert.NoError(t, statErr)
}

func TestUnlinkWithRetry(t *testing.T) {
	t.Run("MissingFileIsSuccess", func(t *testing.T) {
		err := unlinkWithRetry(context.Background(), filepath.Join(t.TempDir(), "missing"))
		assert.NoError(t, err)
	})

	t.Run("RemovesExistingFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "f")
		writeFile(t, path, "x")

		require.NoError(t, unlinkWithRetry(context.Background(), path))

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}
