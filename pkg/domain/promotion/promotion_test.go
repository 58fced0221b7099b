package promotion_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/SMI/metacat/pkg/cmp"
	"github.com/SMI/metacat/pkg/domain"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	catmocks "github.com/SMI/metacat/pkg/domain/catalogue/db/mock"
	"github.com/SMI/metacat/pkg/domain/promotion"
	srcmocks "github.com/SMI/metacat/pkg/domain/source/db/mock"
	"github.com/SMI/metacat/pkg/utils/pointer"
	"github.com/SMI/metacat/pkg/utils/slices"
)

const stamp = "2026-08-31 12:00:00"

func TestApplyBlocklist(t *testing.T) {
	t.Run("blocklisted entities become blocked, others without status unavailable", func(t *testing.T) {
		modalities := []domain.Modality{
			{Name: "CT"},
			{Name: "MR", PromotionStatus: domain.Available},
			{Name: "XA", PromotionStatus: domain.Available},
		}
		tags := []domain.Tag{
			{Name: "(0010,0010)"},
			{Name: "(0008,0018)", PromotionStatus: domain.Processing},
		}
		blockedMods := []domain.BlockedModality{{Name: "XA", BlockReason: "unusable"}}
		blockedTags := []domain.BlockedTag{{Name: "(0010,0010)", BlockReason: "identifying"}}

		gotMods, gotTags := promotion.ApplyBlocklist(modalities, tags, blockedMods, blockedTags, stamp)

		expectedMods := map[string]domain.PromotionStatus{
			"CT": domain.Unavailable,
			"XA": domain.Blocked,
		}
		actualMods := map[string]domain.PromotionStatus{}
		for _, m := range gotMods {
			actualMods[m.Name] = m.PromotionStatus
			if m.PromotionStatusDate != stamp {
				t.Errorf("%s: promotionStatusDate is not stamped", m.Name)
			}
		}
		if !cmp.MapEq(actualMods, expectedMods) {
			t.Errorf(
				"unexpected modality changes:\n===actual===\n%v\n===expected===\n%v",
				actualMods, expectedMods,
			)
		}

		expectedTags := map[string]domain.PromotionStatus{
			"(0010,0010)": domain.Blocked,
		}
		actualTags := map[string]domain.PromotionStatus{}
		for _, tg := range gotTags {
			actualTags[tg.Name] = tg.PromotionStatus
		}
		if !cmp.MapEq(actualTags, expectedTags) {
			t.Errorf(
				"unexpected tag changes:\n===actual===\n%v\n===expected===\n%v",
				actualTags, expectedTags,
			)
		}
	})

	t.Run("blocking overrides available", func(t *testing.T) {
		gotMods, _ := promotion.ApplyBlocklist(
			[]domain.Modality{{Name: "US", PromotionStatus: domain.Available}},
			nil,
			[]domain.BlockedModality{{Name: "US"}},
			nil, stamp,
		)
		if len(gotMods) != 1 || gotMods[0].PromotionStatus != domain.Blocked {
			t.Errorf("available modality is not overridden: %+v", gotMods)
		}
	})

	t.Run("already settled entities are not rewritten", func(t *testing.T) {
		gotMods, gotTags := promotion.ApplyBlocklist(
			[]domain.Modality{{Name: "US", PromotionStatus: domain.Blocked}},
			[]domain.Tag{{Name: "(0008,0018)", PromotionStatus: domain.Unavailable}},
			[]domain.BlockedModality{{Name: "US"}},
			nil, stamp,
		)
		if len(gotMods) != 0 || len(gotTags) != 0 {
			t.Errorf("nothing changed, nothing should be returned: %+v %+v", gotMods, gotTags)
		}
	})
}

func TestApplyPresence(t *testing.T) {
	presence := promotion.Presence{
		Modalities: map[string]bool{"CT": true, "MR": true, "US": true, "XA": true},
		Columns:    map[string]bool{"StudyDate": true, "(0008,0018)": true},
	}

	t.Run("staging data moves entities to processing", func(t *testing.T) {
		modalities := []domain.Modality{
			{Name: "CT", PromotionStatus: domain.Unavailable, TotalNoImagesStaging: pointer.Ref[int64](10)},
			// counted zero: no data actually reached staging
			{Name: "MR", PromotionStatus: domain.Unavailable, TotalNoImagesStaging: pointer.Ref[int64](0)},
			// never counted at staging
			{Name: "US", PromotionStatus: domain.Unavailable},
			// not present in the database at all
			{Name: "NM", PromotionStatus: domain.Unavailable, TotalNoImagesStaging: pointer.Ref[int64](10)},
		}
		tags := []domain.Tag{
			{Name: "(0008,0018)", PromotionStatus: domain.Unavailable},
			{Name: "(0010,0010)", PromotionStatus: domain.Unavailable},
		}

		gotMods, gotTags := promotion.ApplyPresence(modalities, tags, presence, domain.StageStaging, stamp)

		modNames := slices.Map(gotMods, func(m domain.Modality) string { return m.Name })
		if !cmp.SliceContentEq(modNames, []string{"CT"}) {
			t.Errorf("unexpected modalities changed: %v", modNames)
		}
		if gotMods[0].PromotionStatus != domain.Processing {
			t.Errorf("unexpected status: %s", gotMods[0].PromotionStatus)
		}

		tagNames := slices.Map(gotTags, func(tg domain.Tag) string { return tg.Name })
		if !cmp.SliceContentEq(tagNames, []string{"(0008,0018)"}) {
			t.Errorf("unexpected tags changed: %v", tagNames)
		}
		if gotTags[0].PromotionStatus != domain.Processing {
			t.Errorf("unexpected status: %s", gotTags[0].PromotionStatus)
		}
	})

	t.Run("live data moves entities to available", func(t *testing.T) {
		gotMods, _ := promotion.ApplyPresence(
			[]domain.Modality{{
				Name: "CT", PromotionStatus: domain.Processing,
				TotalNoImagesLive: pointer.Ref[int64](5),
			}},
			nil, presence, domain.StageLive, stamp,
		)
		if len(gotMods) != 1 || gotMods[0].PromotionStatus != domain.Available {
			t.Errorf("unexpected changes: %+v", gotMods)
		}
	})

	t.Run("blocked and available are terminal", func(t *testing.T) {
		gotMods, gotTags := promotion.ApplyPresence(
			[]domain.Modality{
				{Name: "CT", PromotionStatus: domain.Blocked, TotalNoImagesStaging: pointer.Ref[int64](5)},
				{Name: "MR", PromotionStatus: domain.Available, TotalNoImagesStaging: pointer.Ref[int64](5)},
			},
			[]domain.Tag{
				{Name: "(0008,0018)", PromotionStatus: domain.Blocked},
			},
			presence, domain.StageStaging, stamp,
		)
		if len(gotMods) != 0 || len(gotTags) != 0 {
			t.Errorf("terminal statuses moved: %+v %+v", gotMods, gotTags)
		}
	})
}

func TestPromoter(t *testing.T) {
	logger := log.New(io.Discard, "", log.LstdFlags)
	clock := func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	}

	t.Run("RunPresence reads tables and columns from the stage database", func(t *testing.T) {
		ctx := context.Background()

		rel := srcmocks.NewRelationalInterface()
		rel.Impl.ListTables = func(context.Context) ([]string, error) {
			return []string{"CT_StudyTable", "CT_SeriesTable", "CT_ImageTable"}, nil
		}
		rel.Impl.ListColumns = func(_ context.Context, table string) ([]string, error) {
			return []string{"StudyInstanceUID", "(0008,0018)"}, nil
		}

		catalogue := catmocks.NewCatalogueInterface()
		catalogue.Impl.Modalities = func(context.Context, cataloguedb.ModalityQuery) ([]domain.Modality, error) {
			return []domain.Modality{{
				Name:                 "CT",
				PromotionStatus:      domain.Unavailable,
				TotalNoImagesStaging: pointer.Ref[int64](100),
			}}, nil
		}
		catalogue.Impl.Tags = func(context.Context, cataloguedb.TagQuery) ([]domain.Tag, error) {
			return []domain.Tag{
				{Name: "(0008,0018)", PromotionStatus: domain.Unavailable},
				{Name: "(0010,0010)", PromotionStatus: domain.Unavailable},
			}, nil
		}
		catalogue.Impl.UpsertModalities = func(_ context.Context, mods []domain.Modality) error {
			if len(mods) != 1 || mods[0].PromotionStatus != domain.Processing {
				t.Errorf("unexpected modality upsert: %+v", mods)
			}
			return nil
		}
		catalogue.Impl.UpsertTags = func(_ context.Context, tags []domain.Tag) error {
			if len(tags) != 1 || tags[0].Name != "(0008,0018)" {
				t.Errorf("unexpected tag upsert: %+v", tags)
			}
			return nil
		}

		p := promotion.Promoter{Catalogue: catalogue, Logger: logger, Clock: clock}
		if err := p.RunPresence(ctx, rel, domain.StageStaging); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rel.Calls.ListColumns.Times() != 3 {
			t.Errorf("ListColumns is called %d times", rel.Calls.ListColumns.Times())
		}
		if catalogue.Calls.UpsertModalities.Times() != 1 || catalogue.Calls.UpsertTags.Times() != 1 {
			t.Errorf("changed entities are not written")
		}
	})

	t.Run("RunBlocklist writes only the changed entities", func(t *testing.T) {
		ctx := context.Background()

		catalogue := catmocks.NewCatalogueInterface()
		catalogue.Impl.Modalities = func(context.Context, cataloguedb.ModalityQuery) ([]domain.Modality, error) {
			return []domain.Modality{
				{Name: "CT"},
				{Name: "MR", PromotionStatus: domain.Processing},
			}, nil
		}
		catalogue.Impl.Tags = func(context.Context, cataloguedb.TagQuery) ([]domain.Tag, error) {
			return []domain.Tag{{Name: "(0010,0010)", PromotionStatus: domain.Unavailable}}, nil
		}
		catalogue.Impl.BlockedModalities = func(context.Context) ([]domain.BlockedModality, error) {
			return nil, nil
		}
		catalogue.Impl.BlockedTags = func(context.Context) ([]domain.BlockedTag, error) {
			return nil, nil
		}
		catalogue.Impl.UpsertModalities = func(_ context.Context, mods []domain.Modality) error {
			if len(mods) != 1 || mods[0].Name != "CT" || mods[0].PromotionStatus != domain.Unavailable {
				t.Errorf("unexpected upsert: %+v", mods)
			}
			return nil
		}

		p := promotion.Promoter{Catalogue: catalogue, Logger: logger, Clock: clock}
		if err := p.RunBlocklist(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if catalogue.Calls.UpsertModalities.Times() != 1 {
			t.Errorf("UpsertModalities is called %d times", catalogue.Calls.UpsertModalities.Times())
		}
		if catalogue.Calls.UpsertTags.Times() != 0 {
			t.Errorf("no tag changed, UpsertTags should not be called")
		}
	})
}
