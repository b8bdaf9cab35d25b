package models

import (
	"strconv"
	"strings"
)

type IndexerFlags int

const (
	IndexerFlagFreeleech     IndexerFlags = 1
	IndexerFlagHalfleech     IndexerFlags = 2
	IndexerFlagDoubleUpload  IndexerFlags = 4
	IndexerFlagPTPGolden     IndexerFlags = 8
	IndexerFlagPTPApproved   IndexerFlags = 16
	IndexerFlagHDBInternal   IndexerFlags = 32
	IndexerFlagAHDInternal   IndexerFlags = 64
	IndexerFlagScene         IndexerFlags = 128
	IndexerFlagFreeleech75   IndexerFlags = 256
	IndexerFlagFreeleech25   IndexerFlags = 512
	indexerFlagsKnownBitmask IndexerFlags = 1023
)

var indexerFlagNames = map[string]IndexerFlags{
	"g_freeleech":    IndexerFlagFreeleech,
	"g_halfleech":    IndexerFlagHalfleech,
	"g_doubleupload": IndexerFlagDoubleUpload,
	"ptp_golden":     IndexerFlagPTPGolden,
	"ptp_approved":   IndexerFlagPTPApproved,
	"hdb_internal":   IndexerFlagHDBInternal,
	"ahd_internal":   IndexerFlagAHDInternal,
	"g_scene":        IndexerFlagScene,
	"g_freeleech75":  IndexerFlagFreeleech75,
	"g_freeleech25":  IndexerFlagFreeleech25,
}

// ParseIndexerFlags accepts either a number or a comma separated list of flag
// names ("G_Freeleech, G_Scene"), matched case-insensitively.
func ParseIndexerFlags(s string) (IndexerFlags, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		return IndexerFlags(n), true
	}

	var flags IndexerFlags
	for _, name := range strings.Split(s, ",") {
		flag, ok := indexerFlagNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, false
		}
		flags |= flag
	}
	return flags, true
}

func (f IndexerFlags) Has(flag IndexerFlags) bool {
	return f&flag == flag
}

func (f IndexerFlags) String() string {
	if f == 0 {
		return "0"
	}
	if f&^indexerFlagsKnownBitmask != 0 {
		return strconv.Itoa(int(f))
	}
	names := make([]string, 0)
	for _, name := range []string{"g_freeleech", "g_halfleech", "g_doubleupload", "ptp_golden", "ptp_approved", "hdb_internal", "ahd_internal", "g_scene", "g_freeleech75", "g_freeleech25"} {
		if f.Has(indexerFlagNames[name]) {
			names = append(names, strings.ToUpper(name[:1])+name[1:])
		}
	}
	return strings.Join(names, ", ")
}
