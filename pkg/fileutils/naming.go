package fileutils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	smartDoubleQuotes = regexp.MustCompile(`[“”]`)
	smartSingleQuotes = regexp.MustCompile(`[‘’]`)
	invalidChars      = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	repeatedSpaces    = regexp.MustCompile(`\s+`)
)

// SanitizeForFilename removes or replaces characters that are not safe for filenames.
func SanitizeForFilename(name string) string {
	name = smartDoubleQuotes.ReplaceAllString(name, `"`)
	name = smartSingleQuotes.ReplaceAllString(name, `'`)

	// Different operating systems have different restrictions, so we'll be conservative.
	name = invalidChars.ReplaceAllString(name, "")
	name = repeatedSpaces.ReplaceAllString(name, " ")

	// Windows doesn't like trailing dots.
	name = strings.Trim(name, " .")

	if len(name) > 200 {
		name = name[:200]
		name = strings.Trim(name, " .")
	}

	return name
}

// AuthorFolderName is the directory an author's books live under.
func AuthorFolderName(name string) string {
	folder := SanitizeForFilename(name)
	if folder == "" {
		return "Unknown Author"
	}
	return folder
}

// BookFolderName creates the per-book folder name: Title (Year).
func BookFolderName(title string, releaseDate *time.Time) string {
	folder := SanitizeForFilename(title)
	if folder == "" {
		folder = "Unknown"
	}
	if releaseDate != nil && !releaseDate.IsZero() {
		folder = fmt.Sprintf("%s (%d)", folder, releaseDate.Year())
	}
	return folder
}

// BookFileName keeps the source file's name. Files that belong to a multi-part
// release get " (Part NN)" inserted before the extension.
func BookFileName(sourcePath string, part, partCount int) string {
	ext := filepath.Ext(sourcePath)
	base := SanitizeForFilename(BaseNameWithoutExt(sourcePath))
	if base == "" {
		base = "Unknown"
	}
	if partCount > 1 && part > 0 {
		width := len(fmt.Sprint(partCount))
		if width < 2 {
			width = 2
		}
		base = fmt.Sprintf("%s (Part %0*d)", base, width, part)
	}
	return base + ext
}

// BaseNameWithoutExt returns the filename without its directory and extension.
func BaseNameWithoutExt(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

var mediaExtensions = map[string]struct{}{
	".epub": {}, ".mobi": {}, ".azw": {}, ".azw3": {}, ".pdf": {}, ".txt": {},
	".mp3": {}, ".m4a": {}, ".m4b": {}, ".flac": {}, ".ogg": {}, ".opus": {}, ".wma": {}, ".aac": {},
	".zip": {}, ".rar": {}, ".nzb": {}, ".torrent": {},
}

// StripMediaExtension removes a trailing known media/container extension from a
// release title so it can be stored as the scene name.
func StripMediaExtension(title string) string {
	ext := strings.ToLower(filepath.Ext(title))
	if _, ok := mediaExtensions[ext]; ok {
		return title[:len(title)-len(ext)]
	}
	return title
}

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".m4a": {}, ".m4b": {}, ".flac": {}, ".ogg": {}, ".opus": {}, ".wma": {}, ".aac": {}, ".wav": {},
}

// IsAudioFile reports whether the path has an audio extension.
func IsAudioFile(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
