package mediainfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_PlainTextFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	info, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", info.MimeType)
	assert.Empty(t, info.AudioFormat)
}

func TestProbe_UntaggedAudioKeepsExtensionFormat(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "track01.mp3")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 0x03}, 0644))

	info, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, "MP3", info.AudioFormat)
	assert.Zero(t, info.Track)
}

func TestProbe_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Probe(filepath.Join(t.TempDir(), "missing.m4b"))
	assert.Error(t, err)
}
