package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/SMI/metacat/pkg/domain/monthly"
)

// TimestampFormat is the format of every date stamped on catalogue
// documents (countsDate<Stage>, promotionStatusDate, tagQualityDateRaw).
const TimestampFormat = "2006-01-02 15:04:05"

func Timestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}

// RoundStat rounds a distribution figure to the two decimal places the
// catalogue stores.
func RoundStat(v float64) float64 {
	return math.Round(v*100) / 100
}

// PromotionStatus is the release lifecycle state of a modality or tag.
type PromotionStatus string

const (
	// explicitly excluded by a blocklist. terminal.
	Blocked PromotionStatus = "blocked"

	// known to the catalogue, no data promoted anywhere yet.
	Unavailable PromotionStatus = "unavailable"

	// data reached the Staging stage.
	Processing PromotionStatus = "processing"

	// data reached the Live stage. terminal.
	Available PromotionStatus = "available"
)

func (p PromotionStatus) String() string {
	return string(p)
}

func AsPromotionStatus(s string) (PromotionStatus, error) {
	switch ps := PromotionStatus(s); ps {
	case Blocked, Unavailable, Processing, Available:
		return ps, nil
	}
	return "", fmt.Errorf("unknown promotion status: %s", s)
}

// Stage is a pipeline maturity level of the data.
//
// Its value is the suffix of the stage-qualified catalogue field names,
// like totalNoImagesStaging.
type Stage string

const (
	StageRaw     Stage = "Raw"
	StageStaging Stage = "Staging"
	StageLive    Stage = "Live"
)

func (s Stage) String() string {
	return string(s)
}

func AsStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StageRaw, StageStaging, StageLive:
		return st, nil
	}
	return "", fmt.Errorf("unknown stage: %s", s)
}

// TargetStatus is the promotion status a data-presence pass at this
// stage promotes to. Raw data alone promotes nothing.
func (s Stage) TargetStatus() PromotionStatus {
	switch s {
	case StageStaging:
		return Processing
	case StageLive:
		return Available
	}
	return Unavailable
}

// ModalityTag is one tag association owned by a modality, carrying the
// modality-scoped quality figures.
type ModalityTag struct {
	Name              string   `bson:"tag" json:"tag"`
	CompletenessRaw   *float64 `bson:"completenessRaw,omitempty" json:"completenessRaw,omitempty"`
	TagQualityDateRaw string   `bson:"tagQualityDateRaw,omitempty" json:"tagQualityDateRaw,omitempty"`
}

// Modality is one catalogue document in the modalities collection,
// keyed by Name.
//
// Totals and stats are pointers: nil means "not computed yet", which is
// distinct from a real zero. Upserts write only non-nil fields, so
// records computed per stage coexist on one document.
type Modality struct {
	Name string `bson:"modality" json:"modality"`

	TotalNoImagesRaw  *int64 `bson:"totalNoImagesRaw,omitempty" json:"totalNoImagesRaw,omitempty"`
	TotalNoSeriesRaw  *int64 `bson:"totalNoSeriesRaw,omitempty" json:"totalNoSeriesRaw,omitempty"`
	TotalNoStudiesRaw *int64 `bson:"totalNoStudiesRaw,omitempty" json:"totalNoStudiesRaw,omitempty"`

	AvgNoImagesPerSeriesRaw  *float64 `bson:"avgNoImagesPerSeriesRaw,omitempty" json:"avgNoImagesPerSeriesRaw,omitempty"`
	MinNoImagesPerSeriesRaw  *float64 `bson:"minNoImagesPerSeriesRaw,omitempty" json:"minNoImagesPerSeriesRaw,omitempty"`
	MaxNoImagesPerSeriesRaw  *float64 `bson:"maxNoImagesPerSeriesRaw,omitempty" json:"maxNoImagesPerSeriesRaw,omitempty"`
	StdDevImagesPerSeriesRaw *float64 `bson:"stdDevImagesPerSeriesRaw,omitempty" json:"stdDevImagesPerSeriesRaw,omitempty"`

	AvgNoSeriesPerStudyRaw  *float64 `bson:"avgNoSeriesPerStudyRaw,omitempty" json:"avgNoSeriesPerStudyRaw,omitempty"`
	MinNoSeriesPerStudyRaw  *float64 `bson:"minNoSeriesPerStudyRaw,omitempty" json:"minNoSeriesPerStudyRaw,omitempty"`
	MaxNoSeriesPerStudyRaw  *float64 `bson:"maxNoSeriesPerStudyRaw,omitempty" json:"maxNoSeriesPerStudyRaw,omitempty"`
	StdDevSeriesPerStudyRaw *float64 `bson:"stdDevSeriesPerStudyRaw,omitempty" json:"stdDevSeriesPerStudyRaw,omitempty"`

	CountsPerMonthRaw []monthly.Count `bson:"countsPerMonthRaw,omitempty" json:"countsPerMonthRaw,omitempty"`
	CountsDateRaw     string          `bson:"countsDateRaw,omitempty" json:"countsDateRaw,omitempty"`

	TotalNoImagesStaging  *int64          `bson:"totalNoImagesStaging,omitempty" json:"totalNoImagesStaging,omitempty"`
	TotalNoSeriesStaging  *int64          `bson:"totalNoSeriesStaging,omitempty" json:"totalNoSeriesStaging,omitempty"`
	TotalNoStudiesStaging *int64          `bson:"totalNoStudiesStaging,omitempty" json:"totalNoStudiesStaging,omitempty"`
	CountsPerMonthStaging []monthly.Count `bson:"countsPerMonthStaging,omitempty" json:"countsPerMonthStaging,omitempty"`
	CountsDateStaging     string          `bson:"countsDateStaging,omitempty" json:"countsDateStaging,omitempty"`

	TotalNoImagesLive  *int64          `bson:"totalNoImagesLive,omitempty" json:"totalNoImagesLive,omitempty"`
	TotalNoSeriesLive  *int64          `bson:"totalNoSeriesLive,omitempty" json:"totalNoSeriesLive,omitempty"`
	TotalNoStudiesLive *int64          `bson:"totalNoStudiesLive,omitempty" json:"totalNoStudiesLive,omitempty"`
	CountsPerMonthLive []monthly.Count `bson:"countsPerMonthLive,omitempty" json:"countsPerMonthLive,omitempty"`
	CountsDateLive     string          `bson:"countsDateLive,omitempty" json:"countsDateLive,omitempty"`

	Tags []ModalityTag `bson:"tags,omitempty" json:"tags,omitempty"`

	PromotionStatus     PromotionStatus `bson:"promotionStatus,omitempty" json:"promotionStatus,omitempty"`
	PromotionStatusDate string          `bson:"promotionStatusDate,omitempty" json:"promotionStatusDate,omitempty"`

	// fields owned by out-of-scope importers (standard dictionary
	// metadata and the like). Round-tripped, never interpreted.
	Extra map[string]interface{} `bson:",inline" json:"-"`
}

// TotalImages is the image total recorded at stage, nil when that stage
// has never been counted.
func (m *Modality) TotalImages(stage Stage) *int64 {
	switch stage {
	case StageRaw:
		return m.TotalNoImagesRaw
	case StageStaging:
		return m.TotalNoImagesStaging
	case StageLive:
		return m.TotalNoImagesLive
	}
	return nil
}

func (m *Modality) HasTag(name string) bool {
	for _, t := range m.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Tag is one catalogue document in the tags collection, keyed by Name.
type Tag struct {
	Name string `bson:"tag" json:"tag"`

	// names of the modalities this tag has been observed on. grow-only.
	Modalities []string `bson:"modalities,omitempty" json:"modalities,omitempty"`

	// "true"|"false". tags looking like a private DICOM code are not public.
	Public string `bson:"public,omitempty" json:"public,omitempty"`

	PromotionStatus     PromotionStatus `bson:"promotionStatus,omitempty" json:"promotionStatus,omitempty"`
	PromotionStatusDate string          `bson:"promotionStatusDate,omitempty" json:"promotionStatusDate,omitempty"`

	// fields owned by out-of-scope importers.
	Extra map[string]interface{} `bson:",inline" json:"-"`
}

// BlockedModality is one modality blocklist entry.
type BlockedModality struct {
	Name        string `bson:"modality" json:"modality"`
	BlockReason string `bson:"blockReason,omitempty" json:"blockReason,omitempty"`
}

// BlockedTag is one tag blocklist entry.
type BlockedTag struct {
	Name        string `bson:"tag" json:"tag"`
	BlockReason string `bson:"blockReason,omitempty" json:"blockReason,omitempty"`

	// modality scope of the block. "all" blocks the tag everywhere.
	Modality string `bson:"modality,omitempty" json:"modality,omitempty"`
}
