package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSink(dir string, t time.Time) *FileImageSink {
	s := NewFileImageSink(dir)
	s.now = func() time.Time { return t }
	return s
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.UTC)
	assert.Equal(t, "avatar_2024-03-09T14_05_07.123456.png", FileName(at, "png"))
	assert.Equal(t, "avatar_2024-03-09T14_05_07.123456.jpg", FileName(at, "jpeg"))
	assert.Equal(t, "avatar_2024-03-09T14_05_07.123456.jpg", FileName(at, ""))
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "images")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sink := fixedSink(dir, at)

	path, err := sink.Save([]byte("png-bytes"), "png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "avatar_2024-01-02T03_04_05.000000.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	// existing directory is fine
	sink.now = func() time.Time { return at.Add(time.Second) }
	_, err = sink.Save([]byte("more"), "jpeg")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "no temp files left behind")
	for _, e := range entries {
		assert.Regexp(t, `^avatar_.*\.(png|jpg)$`, e.Name())
	}
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "images")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	_, err := NewFileImageSink(blocker).Save([]byte("x"), "png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output directory")
}

func TestPruneOlderThan(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := filepath.Join(dir, "avatar_old.png")
	fresh := filepath.Join(dir, "avatar_fresh.png")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	require.NoError(t, os.Chtimes(old, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))
	require.NoError(t, os.Chtimes(other, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))

	removed, err := NewFileImageSink(dir).PruneOlderThan(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestPruneMissingDirectory(t *testing.T) {
	removed, err := NewFileImageSink(filepath.Join(t.TempDir(), "missing")).PruneOlderThan(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSaveSameTimestampKeepsBoth(t *testing.T) {
	dir := t.TempDir()
	sink := fixedSink(dir, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	first, err := sink.Save([]byte("first"), "png")
	require.NoError(t, err)
	second, err := sink.Save([]byte("second"), "png")
	require.NoError(t, err)
	third, err := sink.Save([]byte("third"), "png")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "avatar_2024-01-02T03_04_05.000000.png"), first)
	assert.Equal(t, filepath.Join(dir, "avatar_2024-01-02T03_04_05.000000_1.png"), second)
	assert.Equal(t, filepath.Join(dir, "avatar_2024-01-02T03_04_05.000000_2.png"), third)

	for path, want := range map[string]string{first: "first", second: "second", third: "third"} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temp files left behind")
}
