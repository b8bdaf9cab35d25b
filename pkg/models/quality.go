package models

import (
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Quality struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var (
	QualityUnknown = Quality{ID: 0, Name: "Unknown"}
	QualityPDF     = Quality{ID: 1, Name: "PDF"}
	QualityMOBI    = Quality{ID: 2, Name: "MOBI"}
	QualityEPUB    = Quality{ID: 3, Name: "EPUB"}
	QualityAZW3    = Quality{ID: 4, Name: "AZW3"}
	QualityMP3     = Quality{ID: 10, Name: "MP3"}
	QualityM4B     = Quality{ID: 11, Name: "M4B"}
	QualityFLAC    = Quality{ID: 12, Name: "FLAC"}
)

// AllQualities is ordered worst to best and doubles as the default profile order.
var AllQualities = []Quality{
	QualityUnknown,
	QualityPDF,
	QualityMOBI,
	QualityEPUB,
	QualityAZW3,
	QualityMP3,
	QualityM4B,
	QualityFLAC,
}

type Revision struct {
	Version int `json:"version"`
	Real    int `json:"real"`
}

type QualityModel struct {
	Quality  Quality  `json:"quality"`
	Revision Revision `json:"revision"`
}

func (q QualityModel) Value() (driver.Value, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(b), nil
}

func (q *QualityModel) Scan(src interface{}) error {
	return scanJSON(src, q)
}

type QualityProfileItem struct {
	Quality Quality `json:"quality"`
	Allowed bool    `json:"allowed"`
}

type QualityProfile struct {
	bun.BaseModel `bun:"table:quality_profiles,alias:qp"`

	ID             int                  `bun:",pk,nullzero" json:"id"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Name           string               `bun:",nullzero" json:"name"`
	Cutoff         int                  `json:"cutoff"`
	UpgradeAllowed bool                 `json:"upgrade_allowed"`
	Items          []QualityProfileItem `json:"items"`
}
