package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/SMI/metacat/pkg/domain"
	kdb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	dbmock "github.com/SMI/metacat/pkg/domain/internal/db/mock"
)

type CatalogueInterface struct {
	mu   sync.Mutex
	Impl struct {
		EnsureCatalogue          func(context.Context) error
		EnsureBlocklists         func(context.Context) error
		Modalities               func(context.Context, kdb.ModalityQuery) ([]domain.Modality, error)
		Tags                     func(context.Context, kdb.TagQuery) ([]domain.Tag, error)
		UpsertModalities         func(context.Context, []domain.Modality) error
		UpsertTags               func(context.Context, []domain.Tag) error
		UpdateModalityTagQuality func(context.Context, string, domain.ModalityTag) error
		BlockedModalities        func(context.Context) ([]domain.BlockedModality, error)
		BlockedTags              func(context.Context) ([]domain.BlockedTag, error)
		UpsertBlockedModalities  func(context.Context, []domain.BlockedModality) error
		UpsertBlockedTags        func(context.Context, []domain.BlockedTag) error
	}
	Calls struct {
		EnsureCatalogue          dbmock.CallLog[struct{}]
		EnsureBlocklists         dbmock.CallLog[struct{}]
		Modalities               dbmock.CallLog[kdb.ModalityQuery]
		Tags                     dbmock.CallLog[kdb.TagQuery]
		UpsertModalities         dbmock.CallLog[[]domain.Modality]
		UpsertTags               dbmock.CallLog[[]domain.Tag]
		UpdateModalityTagQuality dbmock.CallLog[struct {
			Modality string
			Tag      domain.ModalityTag
		}]
		BlockedModalities       dbmock.CallLog[struct{}]
		BlockedTags             dbmock.CallLog[struct{}]
		UpsertBlockedModalities dbmock.CallLog[[]domain.BlockedModality]
		UpsertBlockedTags       dbmock.CallLog[[]domain.BlockedTag]
	}
}

func NewCatalogueInterface() *CatalogueInterface {
	return &CatalogueInterface{}
}

var _ kdb.CatalogueInterface = &CatalogueInterface{}

func (ci *CatalogueInterface) EnsureCatalogue(ctx context.Context) error {
	dbmock.Record(&ci.mu, &ci.Calls.EnsureCatalogue, struct{}{})
	if ci.Impl.EnsureCatalogue != nil {
		return ci.Impl.EnsureCatalogue(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) EnsureBlocklists(ctx context.Context) error {
	dbmock.Record(&ci.mu, &ci.Calls.EnsureBlocklists, struct{}{})
	if ci.Impl.EnsureBlocklists != nil {
		return ci.Impl.EnsureBlocklists(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) Modalities(ctx context.Context, query kdb.ModalityQuery) ([]domain.Modality, error) {
	dbmock.Record(&ci.mu, &ci.Calls.Modalities, query)
	if ci.Impl.Modalities != nil {
		return ci.Impl.Modalities(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) Tags(ctx context.Context, query kdb.TagQuery) ([]domain.Tag, error) {
	dbmock.Record(&ci.mu, &ci.Calls.Tags, query)
	if ci.Impl.Tags != nil {
		return ci.Impl.Tags(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) UpsertModalities(ctx context.Context, modalities []domain.Modality) error {
	dbmock.Record(&ci.mu, &ci.Calls.UpsertModalities, modalities)
	if ci.Impl.UpsertModalities != nil {
		return ci.Impl.UpsertModalities(ctx, modalities)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) UpsertTags(ctx context.Context, tags []domain.Tag) error {
	dbmock.Record(&ci.mu, &ci.Calls.UpsertTags, tags)
	if ci.Impl.UpsertTags != nil {
		return ci.Impl.UpsertTags(ctx, tags)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) UpdateModalityTagQuality(ctx context.Context, modality string, tag domain.ModalityTag) error {
	dbmock.Record(&ci.mu, &ci.Calls.UpdateModalityTagQuality, struct {
		Modality string
		Tag      domain.ModalityTag
	}{
		Modality: modality, Tag: tag,
	})
	if ci.Impl.UpdateModalityTagQuality != nil {
		return ci.Impl.UpdateModalityTagQuality(ctx, modality, tag)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) BlockedModalities(ctx context.Context) ([]domain.BlockedModality, error) {
	dbmock.Record(&ci.mu, &ci.Calls.BlockedModalities, struct{}{})
	if ci.Impl.BlockedModalities != nil {
		return ci.Impl.BlockedModalities(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) BlockedTags(ctx context.Context) ([]domain.BlockedTag, error) {
	dbmock.Record(&ci.mu, &ci.Calls.BlockedTags, struct{}{})
	if ci.Impl.BlockedTags != nil {
		return ci.Impl.BlockedTags(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) UpsertBlockedModalities(ctx context.Context, blocked []domain.BlockedModality) error {
	dbmock.Record(&ci.mu, &ci.Calls.UpsertBlockedModalities, blocked)
	if ci.Impl.UpsertBlockedModalities != nil {
		return ci.Impl.UpsertBlockedModalities(ctx, blocked)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CatalogueInterface) UpsertBlockedTags(ctx context.Context, blocked []domain.BlockedTag) error {
	dbmock.Record(&ci.mu, &ci.Calls.UpsertBlockedTags, blocked)
	if ci.Impl.UpsertBlockedTags != nil {
		return ci.Impl.UpsertBlockedTags(ctx, blocked)
	}
	panic(errors.New("it should not be called"))
}
