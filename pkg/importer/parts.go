package importer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shishobooks/librarr/pkg/fileutils"
)

var digitRuns = regexp.MustCompile(`\d+`)

// naturalKey pads every run of digits to nine places so a plain string
// comparison orders "track2" before "track10".
func naturalKey(path string) string {
	return digitRuns.ReplaceAllStringFunc(path, func(n string) string {
		if len(n) >= 9 {
			return n
		}
		return strings.Repeat("0", 9-len(n)) + n
	})
}

// NormalizeParts numbers the parts of an audiobook by file name when none of
// its files carry a part number. Groups with any ebook file or any existing
// part number are left alone.
func NormalizeParts(items []*LocalBook) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !fileutils.IsAudioFile(item.Path) || item.Part != 0 {
			return false
		}
	}

	ordered := make([]*LocalBook, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return naturalKey(ordered[i].Path) < naturalKey(ordered[j].Path)
	})
	for i, item := range ordered {
		item.Part = i + 1
	}
	return true
}
