package extras

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
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestImportExtras_MovesCoverAndSidecar(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "downloads", "release", "book.epub")
	dst := filepath.Join(dir, "library", "Author", "Book (2020)", "Book.epub")
	writeFile(t, src, "book")
	writeFile(t, filepath.Join(dir, "downloads", "release", "book_cover.jpg"), "img")
	writeFile(t, src+".metadata.json", "{}")
	writeFile(t, filepath.Join(dir, "downloads", "release", "other_cover.png"), "img")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))

	n, err := NewImporter().ImportExtras(context.Background(), src, dst, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(filepath.Join(filepath.Dir(dst), "Book_cover.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(dst + ".metadata.json")
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "downloads", "release", "book_cover.jpg"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "downloads", "release", "other_cover.png"))
	assert.NoError(t, err, "unrelated covers stay put")
}

func TestImportExtras_CopyOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "book.m4b")
	dst := filepath.Join(dir, "out", "book.m4b")
	writeFile(t, filepath.Join(dir, "in", "book_cover.png"), "img")

	n, err := NewImporter().ImportExtras(context.Background(), src, dst, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(filepath.Join(dir, "in", "book_cover.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "out", "book_cover.png"))
	assert.NoError(t, err)
}

func TestImportExtras_NothingToDo(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	n, err := NewImporter().ImportExtras(context.Background(), filepath.Join(dir, "a.epub"), filepath.Join(dir, "b", "a.epub"), false)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportExtras_MoveDropsSupersededSidecar(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "downloads", "kindred.epub")
	dst := filepath.Join(dir, "library", "Kindred (1979)", "kindred.epub")
	writeFile(t, src+".metadata.json", `{"title":"downloaded"}`)
	writeFile(t, dst+".metadata.json", `{"title":"Kindred"}`)

	n, err := NewImporter().ImportExtras(context.Background(), src, dst, false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = os.Stat(src + ".metadata.json")
	assert.True(t, os.IsNotExist(err), "downloaded sidecar is not left behind")
	b, err := os.ReadFile(dst + ".metadata.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Kindred"}`, string(b))
}

func TestImportExtras_CopyKeepsSupersededSidecar(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "downloads", "kindred.epub")
	dst := filepath.Join(dir, "library", "Kindred (1979)", "kindred.epub")
	writeFile(t, src+".metadata.json", `{"title":"downloaded"}`)
	writeFile(t, dst+".metadata.json", `{"title":"Kindred"}`)

	_, err := NewImporter().ImportExtras(context.Background(), src, dst, true)
	require.NoError(t, err)

	_, err = os.Stat(src + ".metadata.json")
	assert.NoError(t, err)
}
