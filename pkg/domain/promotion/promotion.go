// Package promotion maintains the release lifecycle status of
// modalities and tags: blocked and unavailable from the blocklists,
// processing and available from data actually present in the promoted
// relational databases.
package promotion

import (
	"context"
	"log"
	"time"

	"github.com/SMI/metacat/pkg/domain"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	"github.com/SMI/metacat/pkg/domain/counts"
	sourcedb "github.com/SMI/metacat/pkg/domain/source/db"
	"github.com/SMI/metacat/pkg/utils/pointer"
)

// terminal reports whether a data-presence pass may not move the entity
// anymore. Blocklisting still overrides both.
func terminal(status domain.PromotionStatus) bool {
	return status == domain.Blocked || status == domain.Available
}

// ApplyBlocklist computes the status changes the blocklists imply.
//
// Blocklisted entities become blocked, whatever they were. Entities
// without any status yet become unavailable. Only changed entities are
// returned, promotionStatusDate stamped.
func ApplyBlocklist(
	modalities []domain.Modality, tags []domain.Tag,
	blockedMods []domain.BlockedModality, blockedTags []domain.BlockedTag,
	stamp string,
) ([]domain.Modality, []domain.Tag) {
	modBlock := map[string]bool{}
	for _, b := range blockedMods {
		modBlock[b.Name] = true
	}
	tagBlock := map[string]bool{}
	for _, b := range blockedTags {
		tagBlock[b.Name] = true
	}

	changedMods := []domain.Modality{}
	for _, m := range modalities {
		switch {
		case modBlock[m.Name] && m.PromotionStatus != domain.Blocked:
			m.PromotionStatus = domain.Blocked
		case !modBlock[m.Name] && m.PromotionStatus == "":
			m.PromotionStatus = domain.Unavailable
		default:
			continue
		}
		m.PromotionStatusDate = stamp
		changedMods = append(changedMods, m)
	}

	changedTags := []domain.Tag{}
	for _, t := range tags {
		switch {
		case tagBlock[t.Name] && t.PromotionStatus != domain.Blocked:
			t.PromotionStatus = domain.Blocked
		case !tagBlock[t.Name] && t.PromotionStatus == "":
			t.PromotionStatus = domain.Unavailable
		default:
			continue
		}
		t.PromotionStatusDate = stamp
		changedTags = append(changedTags, t)
	}

	return changedMods, changedTags
}

// Presence is what a promoted relational database holds: the modalities
// with recognized tables and every column name found in it.
type Presence struct {
	Modalities map[string]bool
	Columns    map[string]bool
}

// ApplyPresence computes the status changes data present at stage
// implies.
//
// A modality moves to the stage's target status when its tables exist
// and its image total at that stage is positive. A tag moves when its
// name appears among the database's columns. Blocked and available are
// terminal here; entities already at the target are left alone. Only
// changed entities are returned, promotionStatusDate stamped.
func ApplyPresence(
	modalities []domain.Modality, tags []domain.Tag,
	presence Presence, stage domain.Stage, stamp string,
) ([]domain.Modality, []domain.Tag) {
	target := stage.TargetStatus()

	changedMods := []domain.Modality{}
	for _, m := range modalities {
		if !presence.Modalities[m.Name] {
			continue
		}
		if pointer.SafeDeref(m.TotalImages(stage)) <= 0 {
			continue
		}
		if terminal(m.PromotionStatus) || m.PromotionStatus == target {
			continue
		}
		m.PromotionStatus = target
		m.PromotionStatusDate = stamp
		changedMods = append(changedMods, m)
	}

	changedTags := []domain.Tag{}
	for _, t := range tags {
		if !presence.Columns[t.Name] {
			continue
		}
		if terminal(t.PromotionStatus) || t.PromotionStatus == target {
			continue
		}
		t.PromotionStatus = target
		t.PromotionStatusDate = stamp
		changedTags = append(changedTags, t)
	}

	return changedMods, changedTags
}

// Promoter runs the two passes against the catalogue.
type Promoter struct {
	Catalogue cataloguedb.CatalogueInterface
	Logger    *log.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (p Promoter) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock()
}

func (p Promoter) read(ctx context.Context) ([]domain.Modality, []domain.Tag, error) {
	modalities, err := p.Catalogue.Modalities(ctx, cataloguedb.ModalityQuery{})
	if err != nil {
		return nil, nil, err
	}
	tags, err := p.Catalogue.Tags(ctx, cataloguedb.TagQuery{})
	if err != nil {
		return nil, nil, err
	}
	return modalities, tags, nil
}

func (p Promoter) write(ctx context.Context, modalities []domain.Modality, tags []domain.Tag) error {
	p.Logger.Printf("promoting %d modalities, %d tags", len(modalities), len(tags))
	if len(modalities) > 0 {
		if err := p.Catalogue.UpsertModalities(ctx, modalities); err != nil {
			return err
		}
	}
	if len(tags) > 0 {
		if err := p.Catalogue.UpsertTags(ctx, tags); err != nil {
			return err
		}
	}
	return nil
}

// RunBlocklist applies the blocklists to the whole catalogue.
func (p Promoter) RunBlocklist(ctx context.Context) error {
	modalities, tags, err := p.read(ctx)
	if err != nil {
		return err
	}

	blockedMods, err := p.Catalogue.BlockedModalities(ctx)
	if err != nil {
		return err
	}
	blockedTags, err := p.Catalogue.BlockedTags(ctx)
	if err != nil {
		return err
	}

	changedMods, changedTags := ApplyBlocklist(
		modalities, tags, blockedMods, blockedTags, domain.Timestamp(p.now()),
	)
	return p.write(ctx, changedMods, changedTags)
}

// RunPresence inspects db, the relational database of stage, and
// applies the data-presence rules.
func (p Promoter) RunPresence(ctx context.Context, db sourcedb.RelationalInterface, stage domain.Stage) error {
	modalities, tags, err := p.read(ctx)
	if err != nil {
		return err
	}

	tables, err := db.ListTables(ctx)
	if err != nil {
		return err
	}

	presence := Presence{Modalities: map[string]bool{}, Columns: map[string]bool{}}
	for _, set := range counts.TableSets(tables) {
		presence.Modalities[set.Modality] = true
	}
	for _, table := range tables {
		columns, err := db.ListColumns(ctx, table)
		if err != nil {
			return err
		}
		for _, col := range columns {
			presence.Columns[col] = true
		}
	}

	changedMods, changedTags := ApplyPresence(
		modalities, tags, presence, stage, domain.Timestamp(p.now()),
	)
	return p.write(ctx, changedMods, changedTags)
}
