package counts_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/SMI/metacat/pkg/cmp"
	"github.com/SMI/metacat/pkg/domain"
	catmocks "github.com/SMI/metacat/pkg/domain/catalogue/db/mock"
	"github.com/SMI/metacat/pkg/domain/counts"
	"github.com/SMI/metacat/pkg/domain/monthly"
	sourcedb "github.com/SMI/metacat/pkg/domain/source/db"
	srcmocks "github.com/SMI/metacat/pkg/domain/source/db/mock"
	"github.com/SMI/metacat/pkg/utils/pointer"
)

func TestTableSets(t *testing.T) {
	t.Run("it groups recognized tables by modality prefix", func(t *testing.T) {
		tables := []string{
			"CT_ImageTable", "CT_SeriesTable", "CT_StudyTable",
			"NM_Aggregate_ImageType", "NM_SeriesTable", "NM_StudyTable",
			"SR_ImageTable",
			"schema_migrations",
			"StudyTable",
		}

		actual := counts.TableSets(tables)

		expected := []counts.TableSet{
			{Modality: "CT", Tables: []string{"CT_ImageTable", "CT_SeriesTable", "CT_StudyTable"}},
			{Modality: "NM", Tables: []string{"NM_Aggregate_ImageType", "NM_SeriesTable", "NM_StudyTable"}},
			{Modality: "SR", Tables: []string{"SR_ImageTable"}},
		}
		if !cmp.SliceEqWith(actual, expected, func(a, b counts.TableSet) bool {
			return a.Modality == b.Modality && cmp.SliceEq(a.Tables, b.Tables)
		}) {
			t.Errorf(
				"unexpected table sets:\n===actual===\n%+v\n===expected===\n%+v",
				actual, expected,
			)
		}
	})

	t.Run("it detects aggregate image tables", func(t *testing.T) {
		sets := counts.TableSets([]string{"NM_Aggregate_ImageType", "CT_ImageTable"})
		for _, set := range sets {
			switch set.Modality {
			case "NM":
				if !set.HasAggregate() {
					t.Errorf("NM should have an aggregate table")
				}
			case "CT":
				if set.HasAggregate() {
					t.Errorf("CT should not have an aggregate table")
				}
			}
		}
	})
}

func TestZipMonths(t *testing.T) {
	t.Run("months missing from series or image queries count zero", func(t *testing.T) {
		studies := []sourcedb.MonthTotal{
			{Date: "2019/7", Count: 5},
			{Date: "2019/8", Count: 3},
		}
		series := []sourcedb.MonthTotal{
			{Date: "2019/7", Count: 20},
		}
		images := []sourcedb.MonthTotal{
			{Date: "2019/8", Count: 100},
		}

		actual := counts.ZipMonths(studies, series, images)

		expected := []monthly.Count{
			{Date: "2019/7", StudyCount: 5, SeriesCount: 20, ImageCount: 0},
			{Date: "2019/8", StudyCount: 3, SeriesCount: 0, ImageCount: 100},
		}
		if !cmp.SliceEq(actual, expected) {
			t.Errorf(
				"unexpected zip:\n===actual===\n%v\n===expected===\n%v",
				actual, expected,
			)
		}
	})
}

func TestRelationalCounter(t *testing.T) {
	logger := log.New(io.Discard, "", log.LstdFlags)
	clock := func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	}

	t.Run("it records stage-qualified totals and months", func(t *testing.T) {
		ctx := context.Background()

		rel := srcmocks.NewRelationalInterface()
		rel.Impl.ListTables = func(context.Context) ([]string, error) {
			return []string{"CT_ImageTable", "CT_SeriesTable", "CT_StudyTable"}, nil
		}
		rel.Impl.CountRows = func(_ context.Context, table string) (int64, error) {
			switch table {
			case "CT_ImageTable":
				return 1000, nil
			case "CT_SeriesTable":
				return 100, nil
			case "CT_StudyTable":
				return 10, nil
			}
			t.Errorf("unexpected table counted: %s", table)
			return 0, nil
		}
		rel.Impl.StudiesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return []sourcedb.MonthTotal{{Date: "2020/1", Count: 10}}, nil
		}
		rel.Impl.SeriesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return []sourcedb.MonthTotal{{Date: "2020/1", Count: 100}}, nil
		}
		rel.Impl.ImagesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return []sourcedb.MonthTotal{{Date: "2020/1", Count: 1000}}, nil
		}

		catalogue := catmocks.NewCatalogueInterface()
		upserted := []domain.Modality{}
		catalogue.Impl.UpsertModalities = func(_ context.Context, mods []domain.Modality) error {
			upserted = append(upserted, mods...)
			return nil
		}

		rc := counts.RelationalCounter{
			DB: rel, Catalogue: catalogue,
			Stage: domain.StageStaging, Logger: logger, Clock: clock,
		}
		if err := rc.CountAll(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(upserted) != 1 {
			t.Fatalf("unexpected upserts: %+v", upserted)
		}
		ct := upserted[0]
		if ct.Name != "CT" ||
			pointer.SafeDeref(ct.TotalNoImagesStaging) != 1000 ||
			pointer.SafeDeref(ct.TotalNoSeriesStaging) != 100 ||
			pointer.SafeDeref(ct.TotalNoStudiesStaging) != 10 {
			t.Errorf("unexpected staging totals: %+v", ct)
		}
		if ct.TotalNoImagesLive != nil || ct.TotalNoImagesRaw != nil {
			t.Errorf("other stages should stay unset: %+v", ct)
		}
		if ct.CountsDateStaging != "2026-08-31 12:00:00" {
			t.Errorf("countsDateStaging is not stamped: %s", ct.CountsDateStaging)
		}

		expectedMonths := []monthly.Count{
			{Date: "2020/01", ImageCount: 1000, SeriesCount: 100, StudyCount: 10},
		}
		if !cmp.SliceEq(ct.CountsPerMonthStaging, expectedMonths) {
			t.Errorf(
				"unexpected months:\n===actual===\n%v\n===expected===\n%v",
				ct.CountsPerMonthStaging, expectedMonths,
			)
		}
	})

	t.Run("SR totals are distinct UID counts on its image table", func(t *testing.T) {
		ctx := context.Background()

		rel := srcmocks.NewRelationalInterface()
		rel.Impl.ListTables = func(context.Context) ([]string, error) {
			return []string{"SR_ImageTable"}, nil
		}
		rel.Impl.CountDistinctSR = func(_ context.Context, column string) (int64, error) {
			switch column {
			case "StudyInstanceUID":
				return 7, nil
			case "SeriesInstanceUID":
				return 8, nil
			case "SOPInstanceUID":
				return 9, nil
			}
			t.Errorf("unexpected column: %s", column)
			return 0, nil
		}
		rel.Impl.SRPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return nil, nil
		}

		catalogue := catmocks.NewCatalogueInterface()
		upserted := []domain.Modality{}
		catalogue.Impl.UpsertModalities = func(_ context.Context, mods []domain.Modality) error {
			upserted = append(upserted, mods...)
			return nil
		}

		rc := counts.RelationalCounter{
			DB: rel, Catalogue: catalogue,
			Stage: domain.StageLive, Logger: logger, Clock: clock,
		}
		if err := rc.CountAll(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(upserted) != 1 {
			t.Fatalf("unexpected upserts: %+v", upserted)
		}
		sr := upserted[0]
		if pointer.SafeDeref(sr.TotalNoStudiesLive) != 7 ||
			pointer.SafeDeref(sr.TotalNoSeriesLive) != 8 ||
			pointer.SafeDeref(sr.TotalNoImagesLive) != 9 {
			t.Errorf("unexpected SR totals: %+v", sr)
		}
	})

	t.Run("aggregate image tables are summed, not row-counted", func(t *testing.T) {
		ctx := context.Background()

		rel := srcmocks.NewRelationalInterface()
		rel.Impl.ListTables = func(context.Context) ([]string, error) {
			return []string{"NM_Aggregate_ImageType", "NM_SeriesTable", "NM_StudyTable"}, nil
		}
		rel.Impl.CountRows = func(_ context.Context, table string) (int64, error) {
			return 5, nil
		}
		rel.Impl.CountAggregateImages = func(_ context.Context, table string) (int64, error) {
			if table != "NM_Aggregate_ImageType" {
				t.Errorf("unexpected aggregate table: %s", table)
			}
			return 333, nil
		}
		rel.Impl.StudiesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return nil, nil
		}
		rel.Impl.SeriesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return nil, nil
		}
		rel.Impl.AggregateImagesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return nil, nil
		}

		catalogue := catmocks.NewCatalogueInterface()
		upserted := []domain.Modality{}
		catalogue.Impl.UpsertModalities = func(_ context.Context, mods []domain.Modality) error {
			upserted = append(upserted, mods...)
			return nil
		}

		rc := counts.RelationalCounter{
			DB: rel, Catalogue: catalogue,
			Stage: domain.StageStaging, Logger: logger, Clock: clock,
		}
		if err := rc.CountAll(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(upserted) != 1 {
			t.Fatalf("unexpected upserts: %+v", upserted)
		}
		nm := upserted[0]
		if pointer.SafeDeref(nm.TotalNoImagesStaging) != 333 {
			t.Errorf("unexpected image total: %+v", nm)
		}
		if rel.Calls.ImagesPerMonth.Times() != 0 {
			t.Errorf("per-image monthly query should not run for aggregate modalities")
		}
	})

	t.Run("a modality with a missing table degrades instead of failing", func(t *testing.T) {
		ctx := context.Background()

		rel := srcmocks.NewRelationalInterface()
		rel.Impl.ListTables = func(context.Context) ([]string, error) {
			return []string{"US_StudyTable"}, nil
		}
		rel.Impl.CountRows = func(_ context.Context, table string) (int64, error) {
			return 4, nil
		}
		rel.Impl.StudiesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return []sourcedb.MonthTotal{{Date: "2021/3", Count: 4}}, nil
		}
		rel.Impl.SeriesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return nil, sourcedb.ErrNoTable
		}
		rel.Impl.ImagesPerMonth = func(context.Context, string) ([]sourcedb.MonthTotal, error) {
			return nil, sourcedb.ErrNoTable
		}

		catalogue := catmocks.NewCatalogueInterface()
		upserted := []domain.Modality{}
		catalogue.Impl.UpsertModalities = func(_ context.Context, mods []domain.Modality) error {
			upserted = append(upserted, mods...)
			return nil
		}

		rc := counts.RelationalCounter{
			DB: rel, Catalogue: catalogue,
			Stage: domain.StageStaging, Logger: logger, Clock: clock,
		}
		if err := rc.CountAll(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(upserted) != 1 {
			t.Fatalf("unexpected upserts: %+v", upserted)
		}
		us := upserted[0]
		if pointer.SafeDeref(us.TotalNoStudiesStaging) != 4 {
			t.Errorf("unexpected study total: %+v", us)
		}
		if us.TotalNoImagesStaging != nil || us.TotalNoSeriesStaging != nil {
			t.Errorf("totals for missing tables should stay unset: %+v", us)
		}
		expectedMonths := []monthly.Count{{Date: "2021/03", StudyCount: 4}}
		if !cmp.SliceEq(us.CountsPerMonthStaging, expectedMonths) {
			t.Errorf(
				"unexpected months:\n===actual===\n%v\n===expected===\n%v",
				us.CountsPerMonthStaging, expectedMonths,
			)
		}
	})
}
