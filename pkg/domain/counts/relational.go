package counts

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/SMI/metacat/pkg/domain"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	"github.com/SMI/metacat/pkg/domain/monthly"
	sourcedb "github.com/SMI/metacat/pkg/domain/source/db"
	"github.com/SMI/metacat/pkg/utils/pointer"
	"github.com/SMI/metacat/pkg/utils/pool"
	"github.com/SMI/metacat/pkg/utils/slices"
)

// tableSuffixes are the table kinds making up one modality's triplet.
var tableSuffixes = []string{
	"ImageTable", "Aggregate_ImageType", "SeriesTable", "StudyTable",
}

// srModality keeps everything in its single image table; its totals are
// distinct UID counts over that table.
const srModality = "SR"

// TableSet is one modality's tables in a relational database.
type TableSet struct {
	Modality string
	Tables   []string
}

// HasAggregate reports whether the image counts live in an aggregate
// image table instead of a per-image table.
func (ts TableSet) HasAggregate() bool {
	for _, t := range ts.Tables {
		if strings.Contains(t, "Aggregate") {
			return true
		}
	}
	return false
}

// TableSets groups the recognized per-modality tables by modality.
// Table names without a modality prefix are ignored.
func TableSets(tables []string) []TableSet {
	byModality := map[string][]string{}
	names := []string{}

	for _, table := range tables {
		matched := false
		for _, suffix := range tableSuffixes {
			if strings.HasSuffix(table, suffix) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		modality, _, found := strings.Cut(table, "_")
		if !found || modality == "" {
			continue
		}

		if _, ok := byModality[modality]; !ok {
			names = append(names, modality)
		}
		byModality[modality] = append(byModality[modality], table)
	}

	sort.Strings(names)

	sets := make([]TableSet, 0, len(names))
	for _, name := range names {
		tables := byModality[name]
		sort.Strings(tables)
		sets = append(sets, TableSet{Modality: name, Tables: tables})
	}
	return sets
}

// ZipMonths joins the three monthly query results on the month key the
// study query emits. Months the series or image query does not know are
// counted as zero there.
func ZipMonths(studies, series, images []sourcedb.MonthTotal) []monthly.Count {
	seriesByMonth := slices.ToMap(series, func(m sourcedb.MonthTotal) string { return m.Date })
	imagesByMonth := slices.ToMap(images, func(m sourcedb.MonthTotal) string { return m.Date })

	counts := make([]monthly.Count, 0, len(studies))
	for _, s := range studies {
		counts = append(counts, monthly.Count{
			Date:        s.Date,
			StudyCount:  s.Count,
			SeriesCount: seriesByMonth[s.Date].Count,
			ImageCount:  imagesByMonth[s.Date].Count,
		})
	}
	return counts
}

// RelationalCounter computes the volume records of one promoted stage
// from its relational database and upserts them into the catalogue.
type RelationalCounter struct {
	DB        sourcedb.RelationalInterface
	Catalogue cataloguedb.CatalogueInterface
	Stage     domain.Stage
	Logger    *log.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (rc RelationalCounter) now() time.Time {
	if rc.Clock == nil {
		return time.Now()
	}
	return rc.Clock()
}

// CountAll counts every modality found in the database, one pool unit
// per modality. A failed modality is logged and skipped.
func (rc RelationalCounter) CountAll(ctx context.Context) error {
	tables, err := rc.DB.ListTables(ctx)
	if err != nil {
		return err
	}

	sets := TableSets(tables)

	p := pool.New[struct{}](len(sets))
	for _, set := range sets {
		set := set
		p.Go(ctx, set.Modality, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, rc.countModality(ctx, set)
		})
	}

	for _, failed := range pool.Failed(p.Wait()) {
		rc.Logger.Printf("counting modality %s failed: %v", failed.Name, failed.Err)
	}
	return nil
}

func (rc RelationalCounter) countModality(ctx context.Context, set TableSet) error {
	record, err := rc.count(ctx, set)
	if err != nil {
		return err
	}
	return rc.Catalogue.UpsertModalities(ctx, []domain.Modality{record})
}

func (rc RelationalCounter) count(ctx context.Context, set TableSet) (domain.Modality, error) {
	record := domain.Modality{Name: set.Modality}

	images, series, studies, err := rc.totals(ctx, set)
	if err != nil {
		return domain.Modality{}, err
	}

	months, err := rc.months(ctx, set)
	if err != nil {
		return domain.Modality{}, err
	}

	stamp := domain.Timestamp(rc.now())
	switch rc.Stage {
	case domain.StageLive:
		record.TotalNoImagesLive = images
		record.TotalNoSeriesLive = series
		record.TotalNoStudiesLive = studies
		record.CountsPerMonthLive = months
		record.CountsDateLive = stamp
	default:
		record.TotalNoImagesStaging = images
		record.TotalNoSeriesStaging = series
		record.TotalNoStudiesStaging = studies
		record.CountsPerMonthStaging = months
		record.CountsDateStaging = stamp
	}

	return record, nil
}

func (rc RelationalCounter) totals(ctx context.Context, set TableSet) (images, series, studies *int64, err error) {
	if set.Modality == srModality {
		if studies, err = rc.countSR(ctx, "StudyInstanceUID"); err != nil {
			return nil, nil, nil, err
		}
		if series, err = rc.countSR(ctx, "SeriesInstanceUID"); err != nil {
			return nil, nil, nil, err
		}
		if images, err = rc.countSR(ctx, "SOPInstanceUID"); err != nil {
			return nil, nil, nil, err
		}
		return images, series, studies, nil
	}

	for _, table := range set.Tables {
		var count int64
		if strings.Contains(table, "Aggregate") {
			count, err = rc.DB.CountAggregateImages(ctx, table)
		} else {
			count, err = rc.DB.CountRows(ctx, table)
		}
		if errors.Is(err, sourcedb.ErrNoTable) {
			continue
		}
		if err != nil {
			return nil, nil, nil, err
		}

		switch {
		case strings.Contains(table, "Image"):
			images = pointer.Ref(count)
		case strings.Contains(table, "Series"):
			series = pointer.Ref(count)
		case strings.Contains(table, "Study"):
			studies = pointer.Ref(count)
		}
	}
	return images, series, studies, nil
}

func (rc RelationalCounter) countSR(ctx context.Context, column string) (*int64, error) {
	count, err := rc.DB.CountDistinctSR(ctx, column)
	if errors.Is(err, sourcedb.ErrNoTable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pointer.Ref(count), nil
}

// months runs the three monthly queries and zips them. A query hitting
// a missing table contributes no counts instead of failing the modality.
func (rc RelationalCounter) months(ctx context.Context, set TableSet) ([]monthly.Count, error) {
	var studies, series, images []sourcedb.MonthTotal
	var err error

	if set.Modality == srModality {
		if studies, err = rc.monthsOf(ctx, func(ctx context.Context) ([]sourcedb.MonthTotal, error) {
			return rc.DB.SRPerMonth(ctx, "StudyInstanceUID")
		}); err != nil {
			return nil, err
		}
		if series, err = rc.monthsOf(ctx, func(ctx context.Context) ([]sourcedb.MonthTotal, error) {
			return rc.DB.SRPerMonth(ctx, "SeriesInstanceUID")
		}); err != nil {
			return nil, err
		}
		if images, err = rc.monthsOf(ctx, func(ctx context.Context) ([]sourcedb.MonthTotal, error) {
			return rc.DB.SRPerMonth(ctx, "SOPInstanceUID")
		}); err != nil {
			return nil, err
		}
	} else {
		if studies, err = rc.monthsOf(ctx, func(ctx context.Context) ([]sourcedb.MonthTotal, error) {
			return rc.DB.StudiesPerMonth(ctx, set.Modality)
		}); err != nil {
			return nil, err
		}
		if series, err = rc.monthsOf(ctx, func(ctx context.Context) ([]sourcedb.MonthTotal, error) {
			return rc.DB.SeriesPerMonth(ctx, set.Modality)
		}); err != nil {
			return nil, err
		}
		if set.HasAggregate() {
			images, err = rc.monthsOf(ctx, func(ctx context.Context) ([]sourcedb.MonthTotal, error) {
				return rc.DB.AggregateImagesPerMonth(ctx, set.Modality)
			})
		} else {
			images, err = rc.monthsOf(ctx, func(ctx context.Context) ([]sourcedb.MonthTotal, error) {
				return rc.DB.ImagesPerMonth(ctx, set.Modality)
			})
		}
		if err != nil {
			return nil, err
		}
	}

	return monthly.Normalize(ZipMonths(studies, series, images)), nil
}

func (rc RelationalCounter) monthsOf(ctx context.Context, query func(context.Context) ([]sourcedb.MonthTotal, error)) ([]sourcedb.MonthTotal, error) {
	totals, err := query(ctx)
	if errors.Is(err, sourcedb.ErrNoTable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return totals, nil
}
