package pool

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// something sending query with SQL.
//
// this is extracted interface from `pgxpool.Pool`, `pgxpool.Conn` and `pgx.Tx`.
// When you need more details, see them.
type Queryer interface {
	// sending SQL Command which does not have any result rows.
	//
	// for more detail, see `pgxpool.Pool.Exec`
	Exec(ctx context.Context, sql string, arguments ...interface{}) (commandTag pgconn.CommandTag, err error)

	// sending SQL Command which has result rows.
	//
	// for more detail, see `pgxpool.Pool.Query`
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)

	// sending SQL Command which has just single result row.
	//
	// for more detail, see `pgxpool.Pool.QueryRow`
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row

	// // When you need more methods found in pgx, add.
}

// Pool of connections to one relational database.
type Pool interface {
	Queryer

	Close()
}

type pgPool struct {
	*pgxpool.Pool
}

var _ Pool = &pgPool{}

// New connects a pool for the database at connString.
func New(ctx context.Context, connString string) (Pool, error) {
	p, err := pgxpool.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &pgPool{Pool: p}, nil
}
