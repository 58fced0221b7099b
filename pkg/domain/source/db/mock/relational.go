package mocks

import (
	"context"
	"errors"
	"sync"

	dbmock "github.com/SMI/metacat/pkg/domain/internal/db/mock"
	kdb "github.com/SMI/metacat/pkg/domain/source/db"
)

type RelationalInterface struct {
	mu   sync.Mutex
	Impl struct {
		ListTables              func(context.Context) ([]string, error)
		ListColumns             func(context.Context, string) ([]string, error)
		CountRows               func(context.Context, string) (int64, error)
		CountAggregateImages    func(context.Context, string) (int64, error)
		CountDistinctSR         func(context.Context, string) (int64, error)
		StudiesPerMonth         func(context.Context, string) ([]kdb.MonthTotal, error)
		SeriesPerMonth          func(context.Context, string) ([]kdb.MonthTotal, error)
		ImagesPerMonth          func(context.Context, string) ([]kdb.MonthTotal, error)
		AggregateImagesPerMonth func(context.Context, string) ([]kdb.MonthTotal, error)
		SRPerMonth              func(context.Context, string) ([]kdb.MonthTotal, error)
	}
	Calls struct {
		ListTables              dbmock.CallLog[struct{}]
		ListColumns             dbmock.CallLog[struct{ Table string }]
		CountRows               dbmock.CallLog[struct{ Table string }]
		CountAggregateImages    dbmock.CallLog[struct{ Table string }]
		CountDistinctSR         dbmock.CallLog[struct{ Column string }]
		StudiesPerMonth         dbmock.CallLog[struct{ Modality string }]
		SeriesPerMonth          dbmock.CallLog[struct{ Modality string }]
		ImagesPerMonth          dbmock.CallLog[struct{ Modality string }]
		AggregateImagesPerMonth dbmock.CallLog[struct{ Modality string }]
		SRPerMonth              dbmock.CallLog[struct{ Column string }]
	}
}

func NewRelationalInterface() *RelationalInterface {
	return &RelationalInterface{}
}

var _ kdb.RelationalInterface = &RelationalInterface{}

func (ri *RelationalInterface) ListTables(ctx context.Context) ([]string, error) {
	dbmock.Record(&ri.mu, &ri.Calls.ListTables, struct{}{})
	if ri.Impl.ListTables != nil {
		return ri.Impl.ListTables(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) ListColumns(ctx context.Context, table string) ([]string, error) {
	dbmock.Record(&ri.mu, &ri.Calls.ListColumns, struct{ Table string }{Table: table})
	if ri.Impl.ListColumns != nil {
		return ri.Impl.ListColumns(ctx, table)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) CountRows(ctx context.Context, table string) (int64, error) {
	dbmock.Record(&ri.mu, &ri.Calls.CountRows, struct{ Table string }{Table: table})
	if ri.Impl.CountRows != nil {
		return ri.Impl.CountRows(ctx, table)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) CountAggregateImages(ctx context.Context, table string) (int64, error) {
	dbmock.Record(&ri.mu, &ri.Calls.CountAggregateImages, struct{ Table string }{Table: table})
	if ri.Impl.CountAggregateImages != nil {
		return ri.Impl.CountAggregateImages(ctx, table)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) CountDistinctSR(ctx context.Context, column string) (int64, error) {
	dbmock.Record(&ri.mu, &ri.Calls.CountDistinctSR, struct{ Column string }{Column: column})
	if ri.Impl.CountDistinctSR != nil {
		return ri.Impl.CountDistinctSR(ctx, column)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) StudiesPerMonth(ctx context.Context, modality string) ([]kdb.MonthTotal, error) {
	dbmock.Record(&ri.mu, &ri.Calls.StudiesPerMonth, struct{ Modality string }{Modality: modality})
	if ri.Impl.StudiesPerMonth != nil {
		return ri.Impl.StudiesPerMonth(ctx, modality)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) SeriesPerMonth(ctx context.Context, modality string) ([]kdb.MonthTotal, error) {
	dbmock.Record(&ri.mu, &ri.Calls.SeriesPerMonth, struct{ Modality string }{Modality: modality})
	if ri.Impl.SeriesPerMonth != nil {
		return ri.Impl.SeriesPerMonth(ctx, modality)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) ImagesPerMonth(ctx context.Context, modality string) ([]kdb.MonthTotal, error) {
	dbmock.Record(&ri.mu, &ri.Calls.ImagesPerMonth, struct{ Modality string }{Modality: modality})
	if ri.Impl.ImagesPerMonth != nil {
		return ri.Impl.ImagesPerMonth(ctx, modality)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) AggregateImagesPerMonth(ctx context.Context, modality string) ([]kdb.MonthTotal, error) {
	dbmock.Record(&ri.mu, &ri.Calls.AggregateImagesPerMonth, struct{ Modality string }{Modality: modality})
	if ri.Impl.AggregateImagesPerMonth != nil {
		return ri.Impl.AggregateImagesPerMonth(ctx, modality)
	}
	panic(errors.New("it should not be called"))
}

func (ri *RelationalInterface) SRPerMonth(ctx context.Context, column string) ([]kdb.MonthTotal, error) {
	dbmock.Record(&ri.mu, &ri.Calls.SRPerMonth, struct{ Column string }{Column: column})
	if ri.Impl.SRPerMonth != nil {
		return ri.Impl.SRPerMonth(ctx, column)
	}
	panic(errors.New("it should not be called"))
}
