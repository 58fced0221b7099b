package postgres

import (
	"context"
	"errors"
	"fmt"

	kpool "github.com/SMI/metacat/pkg/conn/db/postgres/pool"
	kdb "github.com/SMI/metacat/pkg/domain/source/db"
	xerrors "github.com/SMI/metacat/pkg/errors"
	"github.com/SMI/metacat/pkg/utils/pointer"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

// studyMonth renders the study month key as "YYYY/M", month not padded,
// matching the key the document store pipeline concatenates.
const studyMonth = `to_char(%s."StudyDate", 'FMYYYY/FMMM')`

type relPostgres struct {
	q kpool.Queryer
}

// New wraps conn as a relational records source.
func New(conn kpool.Queryer) kdb.RelationalInterface {
	return &relPostgres{q: conn}
}

// classify turns an undefined-table failure into ErrNoTable. Anything
// else is a real store failure.
func classify(op string, target string, err error) error {
	pgErr := new(pgconn.PgError)
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return kdb.ErrNoTable
	}
	return xerrors.NewStoreError(op, target, err)
}

func (r *relPostgres) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(
		ctx,
		`select "table_name" from "information_schema"."tables"
		 where "table_schema" = 'public' order by "table_name"`,
	)
	if err != nil {
		return nil, xerrors.NewStoreError("listTables", "public", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, xerrors.NewStoreError("listTables", "public", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (r *relPostgres) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.q.Query(
		ctx,
		`select "column_name" from "information_schema"."columns"
		 where "table_schema" = 'public' and "table_name" = $1
		 order by "ordinal_position"`,
		table,
	)
	if err != nil {
		return nil, xerrors.NewStoreError("listColumns", table, err)
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, xerrors.NewStoreError("listColumns", table, err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func (r *relPostgres) CountRows(ctx context.Context, table string) (int64, error) {
	var count int64
	err := r.q.QueryRow(
		ctx, fmt.Sprintf(`select count(*) from %q`, table),
	).Scan(&count)
	if err != nil {
		return 0, classify("countRows", table, err)
	}
	return count, nil
}

func (r *relPostgres) CountAggregateImages(ctx context.Context, table string) (int64, error) {
	// sum is NULL on an empty table
	var count *int64
	err := r.q.QueryRow(
		ctx, fmt.Sprintf(`select sum("ORIGINAL" + "DERIVED") from %q`, table),
	).Scan(&count)
	if err != nil {
		return 0, classify("countAggregateImages", table, err)
	}
	return pointer.SafeDeref(count), nil
}

func (r *relPostgres) CountDistinctSR(ctx context.Context, column string) (int64, error) {
	var count int64
	err := r.q.QueryRow(
		ctx,
		fmt.Sprintf(`select count(distinct %q) from "SR_ImageTable"`, column),
	).Scan(&count)
	if err != nil {
		return 0, classify("countDistinctSR", "SR_ImageTable", err)
	}
	return count, nil
}

func (r *relPostgres) monthTotals(ctx context.Context, op string, target string, query string) ([]kdb.MonthTotal, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, classify(op, target, err)
	}
	defer rows.Close()

	totals := []kdb.MonthTotal{}
	for rows.Next() {
		var (
			date  string
			count *int64
		)
		if err := rows.Scan(&date, &count); err != nil {
			return nil, xerrors.NewStoreError(op, target, err)
		}
		totals = append(totals, kdb.MonthTotal{Date: date, Count: pointer.SafeDeref(count)})
	}
	return totals, rows.Err()
}

func (r *relPostgres) StudiesPerMonth(ctx context.Context, modality string) ([]kdb.MonthTotal, error) {
	study := modality + "_StudyTable"
	query := fmt.Sprintf(
		`select `+studyMonth+` as "StudyMonth", count("StudyInstanceUID")
		 from %q group by "StudyMonth"`,
		fmt.Sprintf("%q", study), study,
	)
	return r.monthTotals(ctx, "studiesPerMonth", study, query)
}

func (r *relPostgres) SeriesPerMonth(ctx context.Context, modality string) ([]kdb.MonthTotal, error) {
	study := modality + "_StudyTable"
	series := modality + "_SeriesTable"
	query := fmt.Sprintf(
		`select `+studyMonth+` as "StudyMonth", count("Se"."SeriesInstanceUID")
		 from %q "St"
		 inner join %q "Se" on "Se"."StudyInstanceUID" = "St"."StudyInstanceUID"
		 group by "StudyMonth"`,
		`"St"`, study, series,
	)
	return r.monthTotals(ctx, "seriesPerMonth", series, query)
}

func (r *relPostgres) ImagesPerMonth(ctx context.Context, modality string) ([]kdb.MonthTotal, error) {
	study := modality + "_StudyTable"
	series := modality + "_SeriesTable"
	image := modality + "_ImageTable"
	query := fmt.Sprintf(
		`select `+studyMonth+` as "StudyMonth", count("I"."SOPInstanceUID")
		 from %q "St"
		 inner join %q "Se" on "St"."StudyInstanceUID" = "Se"."StudyInstanceUID"
		 inner join %q "I" on "Se"."SeriesInstanceUID" = "I"."SeriesInstanceUID"
		 group by "StudyMonth"`,
		`"St"`, study, series, image,
	)
	return r.monthTotals(ctx, "imagesPerMonth", image, query)
}

func (r *relPostgres) AggregateImagesPerMonth(ctx context.Context, modality string) ([]kdb.MonthTotal, error) {
	study := modality + "_StudyTable"
	series := modality + "_SeriesTable"
	image := modality + "_Aggregate_ImageType"
	query := fmt.Sprintf(
		`select `+studyMonth+` as "StudyMonth", sum("I"."ORIGINAL" + "I"."DERIVED")
		 from %q "St"
		 inner join %q "Se" on "St"."StudyInstanceUID" = "Se"."StudyInstanceUID"
		 inner join %q "I" on "Se"."SeriesInstanceUID" = "I"."SeriesInstanceUID"
		 group by "StudyMonth"`,
		`"St"`, study, series, image,
	)
	return r.monthTotals(ctx, "aggregateImagesPerMonth", image, query)
}

func (r *relPostgres) SRPerMonth(ctx context.Context, column string) ([]kdb.MonthTotal, error) {
	query := fmt.Sprintf(
		`select `+studyMonth+` as "StudyMonth", count(distinct %q)
		 from "SR_ImageTable" group by "StudyMonth"`,
		`"SR_ImageTable"`, column,
	)
	return r.monthTotals(ctx, "srPerMonth", "SR_ImageTable", query)
}
