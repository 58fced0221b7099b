package db

import (
	"context"
	"errors"

	"github.com/SMI/metacat/pkg/domain/monthly"
)

// ErrNoTable is returned by RelationalInterface when a queried table does
// not exist in the target database. A modality can legitimately lack some
// of its tables, so callers treat this as "no data", not as a failure.
var ErrNoTable = errors.New("table does not exist")

// ImagesTotal is the per-modality face of the count facet summing image
// weights.
type ImagesTotal struct {
	Modality   string
	ImageCount int64
}

// SeriesTotal is the per-modality face grouping by series: the series
// count and the images-per-series distribution.
type SeriesTotal struct {
	Modality    string
	SeriesCount int64
	Avg         float64
	Min         float64
	Max         float64
	StdDev      float64
}

// StudiesTotal is the per-modality face grouping by study: the study
// count and the series-per-study distribution.
type StudiesTotal struct {
	Modality   string
	StudyCount int64
	Avg        float64
	Min        float64
	Max        float64
	StdDev     float64
}

// MonthlySeries is the per-modality face grouping by study month.
type MonthlySeries struct {
	Modality       string
	CountsPerMonth []monthly.Count
}

// FacetCounts is the result of one multi-face count aggregation over a
// records collection.
type FacetCounts struct {
	Images  []ImagesTotal
	Series  []SeriesTotal
	Studies []StudiesTotal
	Months  []MonthlySeries
}

// TagTally is the per-modality result of the tag quality group: how many
// images carry a value for the tag, and how many of those are the empty
// string.
type TagTally struct {
	Modality string
	Exists   int64
	EmptyStr int64
}

// CollectionFields is the field inventory of one records collection for
// one modality.
type CollectionFields struct {
	Modality string
	Tags     []string
}

// SourceInterface reads the raw records document store.
//
// Collections holding one document per series weight image counts by
// header.ImagesInSeries; per-image collections weight by 1. The adapter
// decides from the collection name.
type SourceInterface interface {
	// Collections lists the collection names in the records database, sorted.
	Collections(ctx context.Context) ([]string, error)

	// Counts runs the four-face count aggregation over collection.
	Counts(ctx context.Context, collection string) (FacetCounts, error)

	// TagQuality tallies presence and emptiness of tag per modality.
	TagQuality(ctx context.Context, collection string, tag string) ([]TagTally, error)

	// Fields lists the top-level field names per modality in collection.
	Fields(ctx context.Context, collection string) ([]CollectionFields, error)
}

// MonthTotal is one row of a monthly GROUP BY: the month key as the
// database renders it ("YYYY/M", month not padded) and a count.
type MonthTotal struct {
	Date  string
	Count int64
}

// RelationalInterface reads one relational database holding the
// promoted records as <MODALITY>_StudyTable / _SeriesTable /
// _ImageTable triplets, with <MODALITY>_Aggregate_ImageType replacing
// the image table for modalities stored pre-aggregated.
//
// Operations against a missing table return ErrNoTable.
type RelationalInterface interface {
	// ListTables lists the table names in the database.
	ListTables(ctx context.Context) ([]string, error)

	// ListColumns lists the column names of table.
	ListColumns(ctx context.Context, table string) ([]string, error)

	// CountRows counts the rows of table.
	CountRows(ctx context.Context, table string) (int64, error)

	// CountAggregateImages sums ORIGINAL + DERIVED over an aggregate
	// image table.
	CountAggregateImages(ctx context.Context, table string) (int64, error)

	// CountDistinctSR counts distinct values of column on SR_ImageTable.
	// SR keeps everything in its image table, so study and series totals
	// come from distinct UIDs of the one table.
	CountDistinctSR(ctx context.Context, column string) (int64, error)

	// StudiesPerMonth groups the study table of modality by study month.
	StudiesPerMonth(ctx context.Context, modality string) ([]MonthTotal, error)

	// SeriesPerMonth groups series joined to their study by study month.
	SeriesPerMonth(ctx context.Context, modality string) ([]MonthTotal, error)

	// ImagesPerMonth groups images joined through series and study by
	// study month.
	ImagesPerMonth(ctx context.Context, modality string) ([]MonthTotal, error)

	// AggregateImagesPerMonth is ImagesPerMonth for modalities stored in
	// an aggregate image table, summing ORIGINAL + DERIVED.
	AggregateImagesPerMonth(ctx context.Context, modality string) ([]MonthTotal, error)

	// SRPerMonth groups distinct values of column on SR_ImageTable by
	// study month.
	SRPerMonth(ctx context.Context, column string) ([]MonthTotal, error)
}
