package qualities

import (
	"path/filepath"
	"strings"

	"github.com/shishobooks/librarr/pkg/models"
)

var extensionQualities = map[string]models.Quality{
	".pdf":  models.QualityPDF,
	".mobi": models.QualityMOBI,
	".epub": models.QualityEPUB,
	".azw3": models.QualityAZW3,
	".mp3":  models.QualityMP3,
	".m4b":  models.QualityM4B,
	".m4a":  models.QualityM4B,
	".flac": models.QualityFLAC,
}

// ForPath guesses the quality from the file extension.
func ForPath(path string) models.Quality {
	if q, ok := extensionQualities[strings.ToLower(filepath.Ext(path))]; ok {
		return q
	}
	return models.QualityUnknown
}

// IsAudio reports whether the quality is an audiobook format.
func IsAudio(q models.Quality) bool {
	return q.ID >= models.QualityMP3.ID
}

// DefaultProfile allows every known quality, ordered worst to best.
func DefaultProfile() *models.QualityProfile {
	items := make([]models.QualityProfileItem, 0, len(models.AllQualities))
	for _, q := range models.AllQualities {
		items = append(items, models.QualityProfileItem{Quality: q, Allowed: true})
	}
	return &models.QualityProfile{
		Name:           "Any",
		Cutoff:         models.QualityFLAC.ID,
		UpgradeAllowed: true,
		Items:          items,
	}
}

// Comparer ranks qualities by their position in a profile. Qualities missing
// from the profile rank below every listed one.
type Comparer struct {
	rank map[int]int
}

// NewComparer builds a comparer for profile. A nil profile ranks by quality id.
func NewComparer(profile *models.QualityProfile) *Comparer {
	c := &Comparer{rank: map[int]int{}}
	if profile == nil || len(profile.Items) == 0 {
		for _, q := range models.AllQualities {
			c.rank[q.ID] = q.ID
		}
		return c
	}
	for i, item := range profile.Items {
		c.rank[item.Quality.ID] = i
	}
	return c
}

func (c *Comparer) rankOf(q models.Quality) int {
	if r, ok := c.rank[q.ID]; ok {
		return r
	}
	return -1
}

// Compare returns a positive number when a is better than b, negative when
// worse and zero when equal. Revisions break ties.
func (c *Comparer) Compare(a, b models.QualityModel) int {
	if d := c.rankOf(a.Quality) - c.rankOf(b.Quality); d != 0 {
		return d
	}
	if d := a.Revision.Version - b.Revision.Version; d != 0 {
		return d
	}
	return a.Revision.Real - b.Revision.Real
}
