package mongo

import (
	"context"

	"github.com/SMI/metacat/pkg/domain"
	kdb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	xerrors "github.com/SMI/metacat/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colModalities        = "modalities"
	colTags              = "tags"
	colModalityBlocklist = "modality_blocklist"
	colTagBlocklist      = "tag_blocklist"
)

type catalogueMongo struct {
	db *mongo.Database
}

// New wraps database of client as the metadata catalogue.
func New(client *mongo.Client, database string) kdb.CatalogueInterface {
	return &catalogueMongo{db: client.Database(database)}
}

func (c *catalogueMongo) ensureNameIndex(ctx context.Context, collection string, key string) error {
	_, err := c.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: key, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return xerrors.NewStoreError("ensureIndex", collection, err)
	}
	return nil
}

func (c *catalogueMongo) EnsureCatalogue(ctx context.Context) error {
	if err := c.ensureNameIndex(ctx, colModalities, "modality"); err != nil {
		return err
	}
	return c.ensureNameIndex(ctx, colTags, "tag")
}

func (c *catalogueMongo) EnsureBlocklists(ctx context.Context) error {
	if err := c.ensureNameIndex(ctx, colModalityBlocklist, "modality"); err != nil {
		return err
	}
	return c.ensureNameIndex(ctx, colTagBlocklist, "tag")
}

func (c *catalogueMongo) Modalities(ctx context.Context, query kdb.ModalityQuery) ([]domain.Modality, error) {
	filter := bson.M{}
	if query.NotBlocked {
		filter["promotionStatus"] = bson.M{"$ne": domain.Blocked.String()}
	}
	if query.NameRegex != "" {
		filter["modality"] = bson.M{"$regex": query.NameRegex}
	}

	cur, err := c.db.Collection(colModalities).Find(ctx, filter)
	if err != nil {
		return nil, xerrors.NewStoreError("find", colModalities, err)
	}

	modalities := []domain.Modality{}
	if err := cur.All(ctx, &modalities); err != nil {
		return nil, xerrors.NewStoreError("find", colModalities, err)
	}
	return modalities, nil
}

func (c *catalogueMongo) Tags(ctx context.Context, query kdb.TagQuery) ([]domain.Tag, error) {
	filter := bson.M{}
	if query.PromotionStatus != "" {
		filter["promotionStatus"] = query.PromotionStatus.String()
	}
	if query.Public != "" {
		filter["public"] = query.Public
	}
	if query.NameRegex != "" {
		filter["tag"] = bson.M{"$regex": query.NameRegex}
	}

	cur, err := c.db.Collection(colTags).Find(ctx, filter)
	if err != nil {
		return nil, xerrors.NewStoreError("find", colTags, err)
	}

	tags := []domain.Tag{}
	if err := cur.All(ctx, &tags); err != nil {
		return nil, xerrors.NewStoreError("find", colTags, err)
	}
	return tags, nil
}

func (c *catalogueMongo) upsertByKey(ctx context.Context, collection string, key string, name string, doc interface{}) error {
	_, err := c.db.Collection(collection).UpdateOne(
		ctx,
		bson.M{key: name},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return xerrors.NewStoreError("upsert", collection, err)
	}
	return nil
}

func (c *catalogueMongo) UpsertModalities(ctx context.Context, modalities []domain.Modality) error {
	for _, m := range modalities {
		if err := c.upsertByKey(ctx, colModalities, "modality", m.Name, m); err != nil {
			return err
		}
	}
	return nil
}

func (c *catalogueMongo) UpsertTags(ctx context.Context, tags []domain.Tag) error {
	for _, t := range tags {
		if err := c.upsertByKey(ctx, colTags, "tag", t.Name, t); err != nil {
			return err
		}
	}
	return nil
}

func (c *catalogueMongo) UpdateModalityTagQuality(ctx context.Context, modality string, tag domain.ModalityTag) error {
	set := bson.M{"tags.$.tag": tag.Name}
	if tag.CompletenessRaw != nil {
		set["tags.$.completenessRaw"] = *tag.CompletenessRaw
	}
	if tag.TagQualityDateRaw != "" {
		set["tags.$.tagQualityDateRaw"] = tag.TagQualityDateRaw
	}

	_, err := c.db.Collection(colModalities).UpdateOne(
		ctx,
		bson.M{"modality": modality, "tags.tag": tag.Name},
		bson.M{"$set": set},
	)
	if err != nil {
		return xerrors.NewStoreError("updateTagQuality", colModalities, err)
	}
	return nil
}

func (c *catalogueMongo) BlockedModalities(ctx context.Context) ([]domain.BlockedModality, error) {
	cur, err := c.db.Collection(colModalityBlocklist).Find(ctx, bson.M{})
	if err != nil {
		return nil, xerrors.NewStoreError("find", colModalityBlocklist, err)
	}

	blocked := []domain.BlockedModality{}
	if err := cur.All(ctx, &blocked); err != nil {
		return nil, xerrors.NewStoreError("find", colModalityBlocklist, err)
	}
	return blocked, nil
}

func (c *catalogueMongo) BlockedTags(ctx context.Context) ([]domain.BlockedTag, error) {
	cur, err := c.db.Collection(colTagBlocklist).Find(ctx, bson.M{})
	if err != nil {
		return nil, xerrors.NewStoreError("find", colTagBlocklist, err)
	}

	blocked := []domain.BlockedTag{}
	if err := cur.All(ctx, &blocked); err != nil {
		return nil, xerrors.NewStoreError("find", colTagBlocklist, err)
	}
	return blocked, nil
}

func (c *catalogueMongo) UpsertBlockedModalities(ctx context.Context, blocked []domain.BlockedModality) error {
	for _, b := range blocked {
		if err := c.upsertByKey(ctx, colModalityBlocklist, "modality", b.Name, b); err != nil {
			return err
		}
	}
	return nil
}

func (c *catalogueMongo) UpsertBlockedTags(ctx context.Context, blocked []domain.BlockedTag) error {
	for _, b := range blocked {
		if err := c.upsertByKey(ctx, colTagBlocklist, "tag", b.Name, b); err != nil {
			return err
		}
	}
	return nil
}
