// Package discovery extracts the modality and attribute inventory from
// the raw records and populates the catalogue with it, either from
// scratch or by merging into what is already catalogued.
package discovery

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/SMI/metacat/pkg/domain"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	"github.com/SMI/metacat/pkg/domain/counts"
	sourcedb "github.com/SMI/metacat/pkg/domain/source/db"
	srcmongo "github.com/SMI/metacat/pkg/domain/source/db/mongo"
	"github.com/SMI/metacat/pkg/utils/pool"
	"github.com/SMI/metacat/pkg/utils/slices"
)

// Shape merges per-collection field inventories into catalogue-shaped
// records: one modality per name carrying placeholder tag subdocuments,
// and one tag per name carrying the modalities it was seen on.
//
// Names are sorted so repeated discovery yields identical records.
func Shape(fields []sourcedb.CollectionFields) ([]domain.Modality, []domain.Tag) {
	tagsByModality := map[string]map[string]bool{}
	for _, f := range fields {
		set, ok := tagsByModality[f.Modality]
		if !ok {
			set = map[string]bool{}
			tagsByModality[f.Modality] = set
		}
		for _, tag := range f.Tags {
			set[tag] = true
		}
	}

	modNames := slices.KeysOf(tagsByModality)
	sort.Strings(modNames)

	modsByTag := map[string][]string{}

	modalities := make([]domain.Modality, 0, len(modNames))
	for _, name := range modNames {
		tagNames := slices.KeysOf(tagsByModality[name])
		sort.Strings(tagNames)

		tags := make([]domain.ModalityTag, 0, len(tagNames))
		for _, tag := range tagNames {
			tags = append(tags, domain.ModalityTag{Name: tag})
			modsByTag[tag] = append(modsByTag[tag], name)
		}

		modalities = append(modalities, domain.Modality{Name: name, Tags: tags})
	}

	tagNames := slices.KeysOf(modsByTag)
	sort.Strings(tagNames)

	tags := make([]domain.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		tags = append(tags, domain.Tag{Name: name, Modalities: modsByTag[name]})
	}

	return modalities, tags
}

// Discoverer populates the catalogue from the records inventory.
type Discoverer struct {
	Source    sourcedb.SourceInterface
	Catalogue cataloguedb.CatalogueInterface
	Logger    *log.Logger
}

// discover reads the field inventory. In per-image mode every image_*
// collection and the series collection are inventoried concurrently.
func (d Discoverer) discover(ctx context.Context, perImage bool) ([]sourcedb.CollectionFields, error) {
	if !perImage {
		return d.Source.Fields(ctx, srcmongo.SeriesCollection)
	}

	collections, err := d.Source.Collections(ctx)
	if err != nil {
		return nil, err
	}

	targets := slices.Filter(collections, func(col string) bool {
		return strings.Contains(col, counts.ImageCollectionPrefix) || col == srcmongo.SeriesCollection
	})

	p := pool.New[[]sourcedb.CollectionFields](len(targets))
	for _, col := range targets {
		col := col
		p.Go(ctx, col, func(ctx context.Context) ([]sourcedb.CollectionFields, error) {
			return d.Source.Fields(ctx, col)
		})
	}

	fields := []sourcedb.CollectionFields{}
	for _, result := range p.Wait() {
		if result.Err != nil {
			d.Logger.Printf("inventory of collection %s failed: %v", result.Name, result.Err)
			continue
		}
		fields = append(fields, result.Value...)
	}
	return fields, nil
}

// Initialize sets the catalogue up from scratch: collections, unique
// indexes and the discovered inventory.
func (d Discoverer) Initialize(ctx context.Context, perImage bool) error {
	fields, err := d.discover(ctx, perImage)
	if err != nil {
		return err
	}
	modalities, tags := Shape(fields)
	d.Logger.Printf("discovered %d modalities, %d tags", len(modalities), len(tags))

	if err := d.Catalogue.EnsureCatalogue(ctx); err != nil {
		return err
	}
	if err := d.Catalogue.UpsertModalities(ctx, modalities); err != nil {
		return err
	}
	return d.Catalogue.UpsertTags(ctx, tags)
}

// Update merges the discovered inventory into the current catalogue.
// Nothing is removed; known modalities only gain placeholder tags, known
// tags only gain modality names.
func (d Discoverer) Update(ctx context.Context, perImage bool) error {
	fields, err := d.discover(ctx, perImage)
	if err != nil {
		return err
	}
	modalities, tags := Shape(fields)

	knownMods, err := d.Catalogue.Modalities(ctx, cataloguedb.ModalityQuery{})
	if err != nil {
		return err
	}
	knownTags, err := d.Catalogue.Tags(ctx, cataloguedb.TagQuery{})
	if err != nil {
		return err
	}

	mergedMods := domain.MergeModalities(knownMods, modalities)
	mergedTags := domain.MergeTags(knownTags, tags)
	d.Logger.Printf(
		"merging inventory: %d -> %d modalities, %d -> %d tags",
		len(knownMods), len(mergedMods), len(knownTags), len(mergedTags),
	)

	if err := d.Catalogue.UpsertModalities(ctx, mergedMods); err != nil {
		return err
	}
	return d.Catalogue.UpsertTags(ctx, mergedTags)
}
