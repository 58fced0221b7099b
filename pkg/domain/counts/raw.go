// Package counts computes the per-modality volume records: totals,
// distribution figures and the per-month series, from the raw document
// store and from the promoted relational databases.
package counts

import (
	"context"
	"log"
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

// ImageCollectionPrefix marks the per-image records collections, one per
// modality, counted instead of the series collection in per-image mode.
const ImageCollectionPrefix = "image_"

// RawCounter computes the Raw stage volume records from the records
// document store and upserts them into the catalogue.
type RawCounter struct {
	Source    sourcedb.SourceInterface
	Catalogue cataloguedb.CatalogueInterface
	Logger    *log.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (rc RawCounter) now() time.Time {
	if rc.Clock == nil {
		return time.Now()
	}
	return rc.Clock()
}

// CountCollection runs the count aggregation over one collection and
// upserts the resulting modality records.
func (rc RawCounter) CountCollection(ctx context.Context, collection string) error {
	facets, err := rc.Source.Counts(ctx, collection)
	if err != nil {
		return err
	}

	modalities := BuildModalities(facets, domain.Timestamp(rc.now()))
	rc.Logger.Printf("collection %s: counted %d modalities", collection, len(modalities))

	return rc.Catalogue.UpsertModalities(ctx, modalities)
}

// CountPerImage fans one count unit per per-image collection out on a
// pool. A failed collection is logged and skipped; siblings proceed.
func (rc RawCounter) CountPerImage(ctx context.Context) error {
	collections, err := rc.Source.Collections(ctx)
	if err != nil {
		return err
	}

	targets := slices.Filter(collections, func(col string) bool {
		return strings.Contains(col, ImageCollectionPrefix)
	})

	p := pool.New[struct{}](len(targets))
	for _, col := range targets {
		col := col
		p.Go(ctx, col, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, rc.CountCollection(ctx, col)
		})
	}

	for _, failed := range pool.Failed(p.Wait()) {
		rc.Logger.Printf("counting collection %s failed: %v", failed.Name, failed.Err)
	}
	return nil
}

// BuildModalities joins the four facet faces into one modality record
// per modality named by the image face.
//
// Distribution figures are rounded to 2 decimals, the monthly series is
// normalized, and countsDateRaw is stamped.
func BuildModalities(facets sourcedb.FacetCounts, stamp string) []domain.Modality {
	modalities := make([]domain.Modality, 0, len(facets.Images))
	index := map[string]int{}

	for _, row := range facets.Images {
		index[row.Modality] = len(modalities)
		modalities = append(modalities, domain.Modality{
			Name:              row.Modality,
			TotalNoImagesRaw:  pointer.Ref(row.ImageCount),
			CountsPerMonthRaw: []monthly.Count{},
			CountsDateRaw:     stamp,
		})
	}

	for _, row := range facets.Series {
		i, ok := index[row.Modality]
		if !ok {
			continue
		}
		modalities[i].TotalNoSeriesRaw = pointer.Ref(row.SeriesCount)
		modalities[i].AvgNoImagesPerSeriesRaw = pointer.Ref(domain.RoundStat(row.Avg))
		modalities[i].MinNoImagesPerSeriesRaw = pointer.Ref(domain.RoundStat(row.Min))
		modalities[i].MaxNoImagesPerSeriesRaw = pointer.Ref(domain.RoundStat(row.Max))
		modalities[i].StdDevImagesPerSeriesRaw = pointer.Ref(domain.RoundStat(row.StdDev))
	}

	for _, row := range facets.Studies {
		i, ok := index[row.Modality]
		if !ok {
			continue
		}
		modalities[i].TotalNoStudiesRaw = pointer.Ref(row.StudyCount)
		modalities[i].AvgNoSeriesPerStudyRaw = pointer.Ref(domain.RoundStat(row.Avg))
		modalities[i].MinNoSeriesPerStudyRaw = pointer.Ref(domain.RoundStat(row.Min))
		modalities[i].MaxNoSeriesPerStudyRaw = pointer.Ref(domain.RoundStat(row.Max))
		modalities[i].StdDevSeriesPerStudyRaw = pointer.Ref(domain.RoundStat(row.StdDev))
	}

	for _, row := range facets.Months {
		i, ok := index[row.Modality]
		if !ok {
			continue
		}
		modalities[i].CountsPerMonthRaw = monthly.Normalize(row.CountsPerMonth)
	}

	return modalities
}
