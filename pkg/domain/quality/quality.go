// Package quality measures how completely each attribute is populated
// in the raw records, per modality, and writes the figure onto the
// modality's tag subdocument in the catalogue.
package quality

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/SMI/metacat/pkg/domain"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	sourcedb "github.com/SMI/metacat/pkg/domain/source/db"
	"github.com/SMI/metacat/pkg/utils/pointer"
	"github.com/SMI/metacat/pkg/utils/pool"
	"github.com/SMI/metacat/pkg/utils/slices"
)

// Priority selects which catalogued tags get measured.
type Priority string

const (
	// every catalogued tag.
	PriorityAll Priority = "all"

	// only tags already promoted to available.
	PriorityAvailable Priority = "available"

	// only public tags.
	PriorityPublic Priority = "public"
)

func AsPriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityAll, PriorityAvailable, PriorityPublic:
		return p, nil
	}
	return "", fmt.Errorf("unknown tag priority: %s", s)
}

// ErrCatalogueWrite marks a failed completeness write. The source may
// fail per tag without consequence for the sweep; the catalogue failing
// means nothing further can be recorded.
var ErrCatalogueWrite = errors.New("failed to write tag quality to the catalogue")

// SourceFactory opens a records source for one unit of work. The
// returned func releases the connection once the unit is done.
type SourceFactory func(ctx context.Context) (sourcedb.SourceInterface, func(context.Context), error)

// Completeness is the share of images carrying a non-empty value for a
// tag, in percent rounded to 2 decimals.
func Completeness(exists int64, emptyStr int64, total int64) float64 {
	return domain.RoundStat(100 * float64(exists-emptyStr) / float64(total))
}

// Aggregator fans one unit per prioritized tag out on a bounded pool.
// Each unit owns its own source connection for its lifetime.
type Aggregator struct {
	NewSource  SourceFactory
	Collection string
	Catalogue  cataloguedb.CatalogueInterface
	Workers    int
	Priority   Priority
	Logger     *log.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (a Aggregator) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}

func (a Aggregator) tagQuery() cataloguedb.TagQuery {
	switch a.Priority {
	case PriorityAvailable:
		return cataloguedb.TagQuery{PromotionStatus: domain.Available}
	case PriorityPublic:
		return cataloguedb.TagQuery{Public: "true"}
	}
	return cataloguedb.TagQuery{}
}

// Run measures every prioritized tag. A failed tag is logged and
// skipped; its siblings proceed.
func (a Aggregator) Run(ctx context.Context) error {
	modalities, err := a.Catalogue.Modalities(ctx, cataloguedb.ModalityQuery{NotBlocked: true})
	if err != nil {
		return err
	}

	tags, err := a.Catalogue.Tags(ctx, a.tagQuery())
	if err != nil {
		return err
	}

	a.Logger.Printf("measuring %d tags (%s) over %d modalities", len(tags), a.Priority, len(modalities))

	// once the catalogue itself fails, units still waiting for a worker
	// slot have nowhere to write; they are skipped, running ones finish.
	var catalogueDown atomic.Bool

	p := pool.New[struct{}](a.Workers)
	for _, tag := range tags {
		tag := tag
		p.Go(ctx, tag.Name, func(ctx context.Context) (struct{}, error) {
			if catalogueDown.Load() {
				return struct{}{}, ErrCatalogueWrite
			}
			err := a.measure(ctx, tag.Name, modalities)
			if errors.Is(err, ErrCatalogueWrite) {
				catalogueDown.Store(true)
				p.Stop()
			}
			return struct{}{}, err
		})
	}

	for _, failed := range pool.Failed(p.Wait()) {
		a.Logger.Printf("measuring tag %s failed: %v", failed.Name, failed.Err)
	}
	return nil
}

func (a Aggregator) measure(ctx context.Context, tag string, modalities []domain.Modality) error {
	source, release, err := a.NewSource(ctx)
	if err != nil {
		return err
	}
	defer release(ctx)

	tallies, err := source.TagQuality(ctx, a.Collection, tag)
	if err != nil {
		return err
	}

	byModality := slices.ToMap(tallies, func(t sourcedb.TagTally) string { return t.Modality })

	stamp := domain.Timestamp(a.now())
	for _, mod := range modalities {
		if !mod.HasTag(tag) {
			continue
		}
		tally, ok := byModality[mod.Name]
		if !ok {
			continue
		}

		total := pointer.SafeDeref(mod.TotalNoImagesRaw)
		if total <= 0 {
			// raw counts have not run for this modality yet
			continue
		}

		err := a.Catalogue.UpdateModalityTagQuality(ctx, mod.Name, domain.ModalityTag{
			Name:              tag,
			CompletenessRaw:   pointer.Ref(Completeness(tally.Exists, tally.EmptyStr, total)),
			TagQualityDateRaw: stamp,
		})
		if err != nil {
			return errors.Join(ErrCatalogueWrite, err)
		}
	}
	return nil
}
