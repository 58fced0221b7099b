package db

import (
	"context"

	"github.com/SMI/metacat/pkg/domain"
)

// ModalityQuery narrows a catalogue modality read. The zero value
// matches everything.
type ModalityQuery struct {
	// NotBlocked excludes modalities with promotion status "blocked".
	NotBlocked bool

	// NameRegex keeps only names matching the pattern, when not empty.
	NameRegex string
}

// TagQuery narrows a catalogue tag read. The zero value matches
// everything.
type TagQuery struct {
	// PromotionStatus keeps only tags at this status, when not empty.
	PromotionStatus domain.PromotionStatus

	// Public keeps only tags with this public marker ("true"/"false"),
	// when not empty.
	Public string

	// NameRegex keeps only names matching the pattern, when not empty.
	NameRegex string
}

// CatalogueInterface reads and writes the metadata catalogue.
//
// All writes are upserts keyed by the entity name, setting only the
// fields the given record carries. Fields other pipeline passes wrote
// earlier survive.
type CatalogueInterface interface {
	// EnsureCatalogue creates the modalities and tags collections with
	// their unique name indexes. Idempotent.
	EnsureCatalogue(ctx context.Context) error

	// EnsureBlocklists creates the blocklist collections with their
	// unique name indexes. Idempotent.
	EnsureBlocklists(ctx context.Context) error

	// Modalities reads modalities matching query.
	Modalities(ctx context.Context, query ModalityQuery) ([]domain.Modality, error)

	// Tags reads tags matching query.
	Tags(ctx context.Context, query TagQuery) ([]domain.Tag, error)

	// UpsertModalities writes modalities one by one, keyed by name.
	UpsertModalities(ctx context.Context, modalities []domain.Modality) error

	// UpsertTags writes tags one by one, keyed by name.
	UpsertTags(ctx context.Context, tags []domain.Tag) error

	// UpdateModalityTagQuality updates a single tag subdocument under
	// the named modality in place. The tag must already be associated
	// with the modality; nothing happens otherwise.
	UpdateModalityTagQuality(ctx context.Context, modality string, tag domain.ModalityTag) error

	// BlockedModalities reads the modality blocklist.
	BlockedModalities(ctx context.Context) ([]domain.BlockedModality, error)

	// BlockedTags reads the tag blocklist.
	BlockedTags(ctx context.Context) ([]domain.BlockedTag, error)

	// UpsertBlockedModalities writes modality blocklist entries.
	UpsertBlockedModalities(ctx context.Context, blocked []domain.BlockedModality) error

	// UpsertBlockedTags writes tag blocklist entries.
	UpsertBlockedTags(ctx context.Context, blocked []domain.BlockedTag) error
}
