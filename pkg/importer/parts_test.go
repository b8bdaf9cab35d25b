package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func items(paths ...string) []*LocalBook {
	out := make([]*LocalBook, 0, len(paths))
	for _, p := range paths {
		out = append(out, &LocalBook{Path: p})
	}
	return out
}

func TestNormalizeParts_NumericOrder(t *testing.T) {
	t.Parallel()

	list := items("/dl/b10.m4b", "/dl/b2.m4b")
	assert.True(t, NormalizeParts(list))
	assert.Equal(t, 2, list[0].Part, "b10 sorts after b2")
	assert.Equal(t, 1, list[1].Part)
}

func TestNormalizeParts_ExistingPartLeavesGroupAlone(t *testing.T) {
	t.Parallel()

	list := items("/dl/a.mp3", "/dl/b.mp3", "/dl/c.mp3")
	list[1].Part = 3
	assert.False(t, NormalizeParts(list))
	assert.Equal(t, []int{0, 3, 0}, []int{list[0].Part, list[1].Part, list[2].Part})
}

func TestNormalizeParts_MixedFormatsLeftAlone(t *testing.T) {
	t.Parallel()

	list := items("/dl/a.mp3", "/dl/a.epub")
	assert.False(t, NormalizeParts(list))
	assert.Zero(t, list[0].Part)
	assert.Zero(t, list[1].Part)
}

func TestNormalizeParts_DiscAndTrack(t *testing.T) {
	t.Parallel()

	list := items("/dl/Disc 2/Track 1.mp3", "/dl/Disc 1/Track 10.mp3", "/dl/Disc 1/Track 9.mp3")
	assert.True(t, NormalizeParts(list))
	assert.Equal(t, 3, list[0].Part)
	assert.Equal(t, 2, list[1].Part)
	assert.Equal(t, 1, list[2].Part)
}

func TestNormalizeParts_Empty(t *testing.T) {
	t.Parallel()

	assert.False(t, NormalizeParts(nil))
}

func TestNaturalKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "track000000002.mp000000003", naturalKey("track2.mp3"))
	assert.Less(t, naturalKey("track2"), naturalKey("track10"))
}
