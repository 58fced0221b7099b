// Connections to the MongoDB stores (raw records and catalogue).
//
// Credentials come from the environment: MONGOHOST (a mongodb:// URI),
// MONGOUSER, MONGOPASS and MONGOAUTHDB.
package mongo

import (
	"context"
	"os"

	xerrors "github.com/SMI/metacat/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Dialer opens a new client.
//
// Workers owning their connection for the lifetime of one unit of work
// receive a Dialer instead of a shared client.
type Dialer func(ctx context.Context) (*mongo.Client, error)

// FromEnv dials MongoDB with credentials from the environment.
func FromEnv(ctx context.Context) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(os.Getenv("MONGOHOST"))
	if user := os.Getenv("MONGOUSER"); user != "" {
		opts = opts.SetAuth(options.Credential{
			Username:   user,
			Password:   os.Getenv("MONGOPASS"),
			AuthSource: os.Getenv("MONGOAUTHDB"),
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, xerrors.NewStoreError("connect", "mongodb", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, xerrors.NewStoreError("ping", "mongodb", err)
	}
	return client, nil
}
