package mongo

import (
	"context"
	"sort"

	"github.com/SMI/metacat/pkg/domain/monthly"
	kdb "github.com/SMI/metacat/pkg/domain/source/db"
	xerrors "github.com/SMI/metacat/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SeriesCollection is the records collection holding one document per
// series. Counts over it are weighted by header.ImagesInSeries; every
// other collection holds one document per image, weighted by 1.
const SeriesCollection = "series"

type sourceMongo struct {
	db *mongo.Database
}

// New wraps database of client as a records source.
func New(client *mongo.Client, database string) kdb.SourceInterface {
	return &sourceMongo{db: client.Database(database)}
}

func imageWeight(collection string) interface{} {
	if collection == SeriesCollection {
		return "$header.ImagesInSeries"
	}
	return 1
}

func (s *sourceMongo) Collections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, xerrors.NewStoreError("listCollections", s.db.Name(), err)
	}
	sort.Strings(names)
	return names, nil
}

type facetKey struct {
	Modality string `bson:"modality"`
}

type imagesRow struct {
	ID         facetKey `bson:"_id"`
	ImageCount int64    `bson:"imageCount"`
}

type seriesRow struct {
	ID          facetKey `bson:"_id"`
	Avg         float64  `bson:"avgNoImagesPerSeries"`
	Min         float64  `bson:"minNoImagesPerSeries"`
	Max         float64  `bson:"maxNoImagesPerSeries"`
	StdDev      float64  `bson:"stdDevImagesPerSeries"`
	SeriesCount int64    `bson:"seriesCount"`
}

type studiesRow struct {
	ID         facetKey `bson:"_id"`
	Avg        float64  `bson:"avgNoSeriesPerStudy"`
	Min        float64  `bson:"minNoSeriesPerStudy"`
	Max        float64  `bson:"maxNoSeriesPerStudy"`
	StdDev     float64  `bson:"stdDevSeriesPerStudy"`
	StudyCount int64    `bson:"studyCount"`
}

type monthsRow struct {
	Modality       string          `bson:"modality"`
	CountsPerMonth []monthly.Count `bson:"countsPerMonth"`
}

type facetResult struct {
	ImageCount   []imagesRow  `bson:"imageCount"`
	SeriesCount  []seriesRow  `bson:"seriesCount"`
	StudiesCount []studiesRow `bson:"studiesCount"`
	MonthCount   []monthsRow  `bson:"monthCount"`
}

// countFacet builds the four faces run in a single pass over the
// collection. Each face regroups the same records its own way:
//
//   - imageCount: images per modality
//   - seriesCount: series per modality + images-per-series distribution
//   - studiesCount: studies per modality + series-per-study distribution
//   - monthCount: images/series/studies per modality per study month
func countFacet(weight interface{}) bson.M {
	return bson.M{
		"imageCount": bson.A{
			bson.M{"$group": bson.M{
				"_id":        bson.M{"modality": "$Modality"},
				"imageCount": bson.M{"$sum": weight},
			}},
		},
		"seriesCount": bson.A{
			bson.M{"$group": bson.M{
				"_id": bson.M{
					"modality": "$Modality",
					"seriesID": "$SeriesInstanceUID",
				},
				"imageCountPerSeries": bson.M{"$sum": weight},
			}},
			bson.M{"$group": bson.M{
				"_id":                   bson.M{"modality": "$_id.modality"},
				"avgNoImagesPerSeries":  bson.M{"$avg": "$imageCountPerSeries"},
				"minNoImagesPerSeries":  bson.M{"$min": "$imageCountPerSeries"},
				"maxNoImagesPerSeries":  bson.M{"$max": "$imageCountPerSeries"},
				"stdDevImagesPerSeries": bson.M{"$stdDevPop": "$imageCountPerSeries"},
				"seriesCount":           bson.M{"$sum": 1},
			}},
		},
		"studiesCount": bson.A{
			bson.M{"$group": bson.M{
				"_id": bson.M{
					"modality": "$Modality",
					"studyID":  "$StudyInstanceUID",
					"seriesID": "$SeriesInstanceUID",
				},
			}},
			bson.M{"$group": bson.M{
				"_id": bson.M{
					"modality": "$_id.modality",
					"studyID":  "$_id.studyID",
				},
				"seriesCountPerStudy": bson.M{"$sum": 1},
			}},
			bson.M{"$group": bson.M{
				"_id":                  bson.M{"modality": "$_id.modality"},
				"avgNoSeriesPerStudy":  bson.M{"$avg": "$seriesCountPerStudy"},
				"minNoSeriesPerStudy":  bson.M{"$min": "$seriesCountPerStudy"},
				"maxNoSeriesPerStudy":  bson.M{"$max": "$seriesCountPerStudy"},
				"stdDevSeriesPerStudy": bson.M{"$stdDevPop": "$seriesCountPerStudy"},
				"studyCount":           bson.M{"$sum": 1},
			}},
		},
		"monthCount": bson.A{
			bson.M{"$group": bson.M{
				"_id": bson.M{
					"modality": "$Modality",
					"studyID":  "$StudyInstanceUID",
					"seriesID": "$SeriesInstanceUID",
					"studyYear": bson.M{"$toString": bson.M{
						"$year": bson.M{"$toDate": "$StudyDate"},
					}},
					"studyMonth": bson.M{"$toString": bson.M{
						"$month": bson.M{"$toDate": "$StudyDate"},
					}},
				},
				"imageCount": bson.M{"$sum": weight},
			}},
			bson.M{"$group": bson.M{
				"_id": bson.M{
					"modality":   "$_id.modality",
					"studyID":    "$_id.studyID",
					"studyYear":  "$_id.studyYear",
					"studyMonth": "$_id.studyMonth",
				},
				"imageCount":  bson.M{"$sum": "$imageCount"},
				"seriesCount": bson.M{"$sum": 1},
			}},
			bson.M{"$group": bson.M{
				"_id": bson.M{
					"modality":   "$_id.modality",
					"studyYear":  "$_id.studyYear",
					"studyMonth": "$_id.studyMonth",
				},
				"imageCount":  bson.M{"$sum": "$imageCount"},
				"seriesCount": bson.M{"$sum": "$seriesCount"},
				"studyCount":  bson.M{"$sum": 1},
			}},
			bson.M{"$group": bson.M{
				"_id": bson.M{"modality": "$_id.modality"},
				"countsPerMonth": bson.M{"$push": bson.M{
					"date": bson.M{"$concat": bson.A{
						"$_id.studyYear", "/", "$_id.studyMonth",
					}},
					"imageCount":  "$imageCount",
					"seriesCount": "$seriesCount",
					"studyCount":  "$studyCount",
				}},
			}},
			bson.M{"$project": bson.M{
				"_id":            0,
				"modality":       "$_id.modality",
				"countsPerMonth": "$countsPerMonth",
			}},
		},
	}
}

func (s *sourceMongo) Counts(ctx context.Context, collection string) (kdb.FacetCounts, error) {
	pipeline := bson.A{
		bson.M{"$facet": countFacet(imageWeight(collection))},
	}

	cur, err := s.db.Collection(collection).Aggregate(
		ctx, pipeline, options.Aggregate().SetAllowDiskUse(true),
	)
	if err != nil {
		return kdb.FacetCounts{}, xerrors.NewStoreError("counts", collection, err)
	}

	results := []facetResult{}
	if err := cur.All(ctx, &results); err != nil {
		return kdb.FacetCounts{}, xerrors.NewStoreError("counts", collection, err)
	}
	if len(results) == 0 {
		return kdb.FacetCounts{}, nil
	}

	counts := kdb.FacetCounts{}
	for _, r := range results[0].ImageCount {
		counts.Images = append(counts.Images, kdb.ImagesTotal{
			Modality: r.ID.Modality, ImageCount: r.ImageCount,
		})
	}
	for _, r := range results[0].SeriesCount {
		counts.Series = append(counts.Series, kdb.SeriesTotal{
			Modality: r.ID.Modality, SeriesCount: r.SeriesCount,
			Avg: r.Avg, Min: r.Min, Max: r.Max, StdDev: r.StdDev,
		})
	}
	for _, r := range results[0].StudiesCount {
		counts.Studies = append(counts.Studies, kdb.StudiesTotal{
			Modality: r.ID.Modality, StudyCount: r.StudyCount,
			Avg: r.Avg, Min: r.Min, Max: r.Max, StdDev: r.StdDev,
		})
	}
	for _, r := range results[0].MonthCount {
		counts.Months = append(counts.Months, kdb.MonthlySeries{
			Modality: r.Modality, CountsPerMonth: r.CountsPerMonth,
		})
	}

	return counts, nil
}

func (s *sourceMongo) TagQuality(ctx context.Context, collection string, tag string) ([]kdb.TagTally, error) {
	weight := imageWeight(collection)
	pipeline := bson.A{
		bson.M{"$group": bson.M{
			"_id": "$Modality",
			"exists": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$" + tag, weight, 0},
			}},
			"emptyStr": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$" + tag, ""}}, weight, 0},
			}},
		}},
	}

	cur, err := s.db.Collection(collection).Aggregate(
		ctx, pipeline, options.Aggregate().SetAllowDiskUse(true),
	)
	if err != nil {
		return nil, xerrors.NewStoreError("tagQuality", collection, err)
	}

	rows := []struct {
		Modality string `bson:"_id"`
		Exists   int64  `bson:"exists"`
		EmptyStr int64  `bson:"emptyStr"`
	}{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, xerrors.NewStoreError("tagQuality", collection, err)
	}

	tallies := make([]kdb.TagTally, 0, len(rows))
	for _, r := range rows {
		tallies = append(tallies, kdb.TagTally{
			Modality: r.Modality, Exists: r.Exists, EmptyStr: r.EmptyStr,
		})
	}
	return tallies, nil
}

func (s *sourceMongo) Fields(ctx context.Context, collection string) ([]kdb.CollectionFields, error) {
	pipeline := bson.A{
		bson.M{"$project": bson.M{
			"modality":        "$Modality",
			"arrayofkeyvalue": bson.M{"$objectToArray": "$$ROOT"},
		}},
		bson.M{"$unwind": "$arrayofkeyvalue"},
		bson.M{"$group": bson.M{
			"_id":      "$modality",
			"tag_list": bson.M{"$addToSet": "$arrayofkeyvalue.k"},
		}},
		bson.M{"$project": bson.M{
			"_id":      0,
			"modality": "$_id",
			"tags":     "$tag_list",
		}},
	}

	cur, err := s.db.Collection(collection).Aggregate(
		ctx, pipeline, options.Aggregate().SetAllowDiskUse(true),
	)
	if err != nil {
		return nil, xerrors.NewStoreError("fields", collection, err)
	}

	rows := []struct {
		Modality string   `bson:"modality"`
		Tags     []string `bson:"tags"`
	}{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, xerrors.NewStoreError("fields", collection, err)
	}

	fields := make([]kdb.CollectionFields, 0, len(rows))
	for _, r := range rows {
		fields = append(fields, kdb.CollectionFields{Modality: r.Modality, Tags: r.Tags})
	}
	return fields, nil
}
