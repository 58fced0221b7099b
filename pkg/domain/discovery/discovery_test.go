package discovery_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/SMI/metacat/pkg/cmp"
	"github.com/SMI/metacat/pkg/domain"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	catmocks "github.com/SMI/metacat/pkg/domain/catalogue/db/mock"
	"github.com/SMI/metacat/pkg/domain/discovery"
	sourcedb "github.com/SMI/metacat/pkg/domain/source/db"
	srcmocks "github.com/SMI/metacat/pkg/domain/source/db/mock"
)

func TestShape(t *testing.T) {
	t.Run("it merges per-collection inventories and inverts them per tag", func(t *testing.T) {
		fields := []sourcedb.CollectionFields{
			{Modality: "CT", Tags: []string{"(0010,0010)", "(0008,0018)"}},
			{Modality: "MR", Tags: []string{"(0008,0018)"}},
			// the same modality seen in another collection
			{Modality: "CT", Tags: []string{"(0008,0018)", "(0020,000d)"}},
		}

		modalities, tags := discovery.Shape(fields)

		expectedMods := []domain.Modality{
			{Name: "CT", Tags: []domain.ModalityTag{
				{Name: "(0008,0018)"}, {Name: "(0010,0010)"}, {Name: "(0020,000d)"},
			}},
			{Name: "MR", Tags: []domain.ModalityTag{{Name: "(0008,0018)"}}},
		}
		if !cmp.SliceEqWith(modalities, expectedMods, func(a, b domain.Modality) bool {
			return a.Name == b.Name && cmp.SliceEq(a.Tags, b.Tags)
		}) {
			t.Errorf(
				"unexpected modalities:\n===actual===\n%+v\n===expected===\n%+v",
				modalities, expectedMods,
			)
		}

		expectedTags := []domain.Tag{
			{Name: "(0008,0018)", Modalities: []string{"CT", "MR"}},
			{Name: "(0010,0010)", Modalities: []string{"CT"}},
			{Name: "(0020,000d)", Modalities: []string{"CT"}},
		}
		if !cmp.SliceEqWith(tags, expectedTags, func(a, b domain.Tag) bool {
			return a.Name == b.Name && cmp.SliceContentEq(a.Modalities, b.Modalities)
		}) {
			t.Errorf(
				"unexpected tags:\n===actual===\n%+v\n===expected===\n%+v",
				tags, expectedTags,
			)
		}
	})

	t.Run("it is deterministic", func(t *testing.T) {
		fields := []sourcedb.CollectionFields{
			{Modality: "CT", Tags: []string{"b", "a", "c"}},
			{Modality: "US", Tags: []string{"c", "a"}},
		}

		mods1, tags1 := discovery.Shape(fields)
		mods2, tags2 := discovery.Shape(fields)

		if !cmp.SliceEqWith(mods1, mods2, func(a, b domain.Modality) bool {
			return a.Name == b.Name && cmp.SliceEq(a.Tags, b.Tags)
		}) {
			t.Errorf("modalities differ between runs:\n%v\n%v", mods1, mods2)
		}
		if !cmp.SliceEqWith(tags1, tags2, func(a, b domain.Tag) bool {
			return a.Name == b.Name && cmp.SliceEq(a.Modalities, b.Modalities)
		}) {
			t.Errorf("tags differ between runs:\n%v\n%v", tags1, tags2)
		}
	})
}

func TestDiscoverer(t *testing.T) {
	logger := log.New(io.Discard, "", log.LstdFlags)

	t.Run("Initialize ensures indexes before writing", func(t *testing.T) {
		ctx := context.Background()

		source := srcmocks.NewSourceInterface()
		source.Impl.Fields = func(_ context.Context, collection string) ([]sourcedb.CollectionFields, error) {
			if collection != "series" {
				t.Errorf("unexpected collection: %s", collection)
			}
			return []sourcedb.CollectionFields{
				{Modality: "CT", Tags: []string{"(0008,0018)"}},
			}, nil
		}

		catalogue := catmocks.NewCatalogueInterface()
		catalogue.Impl.EnsureCatalogue = func(context.Context) error { return nil }
		catalogue.Impl.UpsertModalities = func(_ context.Context, mods []domain.Modality) error {
			if len(mods) != 1 || mods[0].Name != "CT" {
				t.Errorf("unexpected modalities: %+v", mods)
			}
			return nil
		}
		catalogue.Impl.UpsertTags = func(_ context.Context, tags []domain.Tag) error {
			if len(tags) != 1 || tags[0].Name != "(0008,0018)" {
				t.Errorf("unexpected tags: %+v", tags)
			}
			return nil
		}

		d := discovery.Discoverer{Source: source, Catalogue: catalogue, Logger: logger}
		if err := d.Initialize(ctx, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if catalogue.Calls.EnsureCatalogue.Times() != 1 {
			t.Errorf("EnsureCatalogue is called %d times", catalogue.Calls.EnsureCatalogue.Times())
		}
	})

	t.Run("Update merges into the current catalogue without removing", func(t *testing.T) {
		ctx := context.Background()

		source := srcmocks.NewSourceInterface()
		source.Impl.Fields = func(context.Context, string) ([]sourcedb.CollectionFields, error) {
			return []sourcedb.CollectionFields{
				{Modality: "CT", Tags: []string{"(0008,0018)", "(0020,000d)"}},
			}, nil
		}

		catalogue := catmocks.NewCatalogueInterface()
		catalogue.Impl.Modalities = func(context.Context, cataloguedb.ModalityQuery) ([]domain.Modality, error) {
			return []domain.Modality{
				{Name: "CT", Tags: []domain.ModalityTag{{Name: "(0008,0018)"}}},
			}, nil
		}
		catalogue.Impl.Tags = func(context.Context, cataloguedb.TagQuery) ([]domain.Tag, error) {
			return []domain.Tag{
				{Name: "(0008,0018)", Modalities: []string{"CT", "MR"}},
			}, nil
		}
		catalogue.Impl.UpsertModalities = func(_ context.Context, mods []domain.Modality) error {
			if len(mods) != 1 || len(mods[0].Tags) != 2 {
				t.Errorf("the new tag should be appended: %+v", mods)
			}
			return nil
		}
		catalogue.Impl.UpsertTags = func(_ context.Context, tags []domain.Tag) error {
			names := map[string][]string{}
			for _, tag := range tags {
				names[tag.Name] = tag.Modalities
			}
			if !cmp.SliceContentEq(names["(0008,0018)"], []string{"CT", "MR"}) {
				t.Errorf("known tag lost modalities: %+v", tags)
			}
			if !cmp.SliceContentEq(names["(0020,000d)"], []string{"CT"}) {
				t.Errorf("new tag is not appended: %+v", tags)
			}
			return nil
		}

		d := discovery.Discoverer{Source: source, Catalogue: catalogue, Logger: logger}
		if err := d.Update(ctx, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("per-image mode inventories every image collection and series", func(t *testing.T) {
		ctx := context.Background()

		source := srcmocks.NewSourceInterface()
		source.Impl.Collections = func(context.Context) ([]string, error) {
			return []string{"image_CT", "image_MR", "series", "modalities"}, nil
		}
		source.Impl.Fields = func(_ context.Context, collection string) ([]sourcedb.CollectionFields, error) {
			return nil, nil
		}

		catalogue := catmocks.NewCatalogueInterface()
		catalogue.Impl.EnsureCatalogue = func(context.Context) error { return nil }
		catalogue.Impl.UpsertModalities = func(context.Context, []domain.Modality) error { return nil }
		catalogue.Impl.UpsertTags = func(context.Context, []domain.Tag) error { return nil }

		d := discovery.Discoverer{Source: source, Catalogue: catalogue, Logger: logger}
		if err := d.Initialize(ctx, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		inventoried := []string{}
		for _, call := range source.Calls.Fields {
			inventoried = append(inventoried, call.Collection)
		}
		expected := []string{"image_CT", "image_MR", "series"}
		if !cmp.SliceContentEq(inventoried, expected) {
			t.Errorf(
				"unexpected collections inventoried:\n===actual===\n%v\n===expected===\n%v",
				inventoried, expected,
			)
		}
	})
}
