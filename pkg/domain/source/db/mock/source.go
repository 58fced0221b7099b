package mocks

import (
	"context"
	"errors"
	"sync"

	dbmock "github.com/SMI/metacat/pkg/domain/internal/db/mock"
	kdb "github.com/SMI/metacat/pkg/domain/source/db"
)

type SourceInterface struct {
	mu   sync.Mutex
	Impl struct {
		Collections func(context.Context) ([]string, error)
		Counts      func(context.Context, string) (kdb.FacetCounts, error)
		TagQuality  func(context.Context, string, string) ([]kdb.TagTally, error)
		Fields      func(context.Context, string) ([]kdb.CollectionFields, error)
	}
	Calls struct {
		Collections dbmock.CallLog[struct{}]
		Counts      dbmock.CallLog[struct{ Collection string }]
		TagQuality  dbmock.CallLog[struct {
			Collection string
			Tag        string
		}]
		Fields dbmock.CallLog[struct{ Collection string }]
	}
}

func NewSourceInterface() *SourceInterface {
	return &SourceInterface{}
}

var _ kdb.SourceInterface = &SourceInterface{}

func (si *SourceInterface) Collections(ctx context.Context) ([]string, error) {
	dbmock.Record(&si.mu, &si.Calls.Collections, struct{}{})
	if si.Impl.Collections != nil {
		return si.Impl.Collections(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (si *SourceInterface) Counts(ctx context.Context, collection string) (kdb.FacetCounts, error) {
	dbmock.Record(&si.mu, &si.Calls.Counts, struct{ Collection string }{Collection: collection})
	if si.Impl.Counts != nil {
		return si.Impl.Counts(ctx, collection)
	}
	panic(errors.New("it should not be called"))
}

func (si *SourceInterface) TagQuality(ctx context.Context, collection string, tag string) ([]kdb.TagTally, error) {
	dbmock.Record(&si.mu, &si.Calls.TagQuality, struct {
		Collection string
		Tag        string
	}{
		Collection: collection, Tag: tag,
	})
	if si.Impl.TagQuality != nil {
		return si.Impl.TagQuality(ctx, collection, tag)
	}
	panic(errors.New("it should not be called"))
}

func (si *SourceInterface) Fields(ctx context.Context, collection string) ([]kdb.CollectionFields, error) {
	dbmock.Record(&si.mu, &si.Calls.Fields, struct{ Collection string }{Collection: collection})
	if si.Impl.Fields != nil {
		return si.Impl.Fields(ctx, collection)
	}
	panic(errors.New("it should not be called"))
}
