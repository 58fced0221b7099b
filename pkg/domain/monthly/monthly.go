// Package monthly holds the per-month count samples attached to each
// modality and the normalization making sparse series contiguous.
package monthly

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	xerrors "github.com/SMI/metacat/pkg/errors"
)

// Sentinel is the month the raw pipeline emits for corrupt StudyDate
// values: converting garbage to a date lands on epoch zero, year 1 month 1.
const Sentinel = "1/1"

// Horizon is the earliest month kept in any series. Counts dated before
// it are known bad historical artifacts.
var Horizon = Month{Year: 2010, Mon: 1}

// Count is one month of image/series/study counts for a modality at one
// pipeline stage. Field names are the catalogue wire names.
type Count struct {
	Date        string `bson:"date" json:"date"`
	ImageCount  int64  `bson:"imageCount" json:"imageCount"`
	SeriesCount int64  `bson:"seriesCount" json:"seriesCount"`
	StudyCount  int64  `bson:"studyCount" json:"studyCount"`
}

// Month is a calendar month. Both backing stores key months as
// "YYYY/M" with the month not zero-padded; Parse accepts padded and
// unpadded forms, String always renders the canonical padded form.
type Month struct {
	Year int
	Mon  int
}

func Parse(s string) (Month, error) {
	year, month, found := strings.Cut(s, "/")
	if !found {
		return Month{}, xerrors.New(fmt.Sprintf("not a month: %q", s))
	}

	y, err := strconv.Atoi(year)
	if err != nil {
		return Month{}, xerrors.WrapWithNote(fmt.Sprintf("not a month: %q", s), err)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Month{}, xerrors.WrapWithNote(fmt.Sprintf("not a month: %q", s), err)
	}
	if m < 1 || 12 < m {
		return Month{}, xerrors.New(fmt.Sprintf("not a month: %q", s))
	}

	return Month{Year: y, Mon: m}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d/%02d", m.Year, m.Mon)
}

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Mon < o.Mon
}

func (m Month) Next() Month {
	if m.Mon == 12 {
		return Month{Year: m.Year + 1, Mon: 1}
	}
	return Month{Year: m.Year, Mon: m.Mon + 1}
}

// Normalize makes a sparse series contiguous.
//
// Samples with no date, the Sentinel date or a date before Horizon are
// dropped. For every month between the earliest and latest surviving
// sample with no sample of its own, a zero count is synthesized. The
// result is sorted ascending with every date in canonical form, so
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(counts []Count) []Count {
	byMonth := map[Month]Count{}

	for _, c := range counts {
		if c.Date == "" || c.Date == Sentinel {
			continue
		}
		m, err := Parse(c.Date)
		if err != nil {
			continue
		}
		if m.Before(Horizon) {
			continue
		}

		c.Date = m.String()
		if prev, ok := byMonth[m]; ok {
			// same month sampled twice: counts are additive
			c.ImageCount += prev.ImageCount
			c.SeriesCount += prev.SeriesCount
			c.StudyCount += prev.StudyCount
		}
		byMonth[m] = c
	}

	if len(byMonth) == 0 {
		return []Count{}
	}

	months := make([]Month, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	min, max := months[0], months[len(months)-1]

	filled := make([]Count, 0, len(byMonth))
	for m := min; !max.Before(m); m = m.Next() {
		if c, ok := byMonth[m]; ok {
			filled = append(filled, c)
			continue
		}
		filled = append(filled, Count{Date: m.String()})
	}

	return filled
}
