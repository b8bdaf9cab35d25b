package authors

import "strings"

var generationalSuffixes = map[string]struct{}{
	"jr.": {}, "jr": {}, "sr.": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {},
}

var particles = map[string]struct{}{
	"van": {}, "von": {}, "de": {}, "der": {}, "den": {}, "du": {}, "da": {}, "di": {}, "le": {}, "la": {},
}

// SortName turns "Ursula K. Le Guin" into "Le Guin, Ursula K.". Generational
// suffixes stay at the end; lowercase particles move with the given names.
func SortName(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return strings.TrimSpace(name)
	}

	var suffix string
	if _, ok := generationalSuffixes[strings.ToLower(parts[len(parts)-1])]; ok {
		suffix = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return strings.TrimSpace(name)
	}

	// Capitalized particles ("Le Guin") are treated as part of the surname.
	surnameStart := len(parts) - 1
	for surnameStart > 1 {
		word := parts[surnameStart-1]
		if _, ok := particles[strings.ToLower(word)]; !ok || word == strings.ToLower(word) {
			break
		}
		surnameStart--
	}

	sorted := strings.Join(parts[surnameStart:], " ") + ", " + strings.Join(parts[:surnameStart], " ")
	if suffix != "" {
		sorted += ", " + suffix
	}
	return sorted
}
