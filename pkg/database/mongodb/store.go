// Package mongodb implements the document backend of the repository layer on
// top of the official MongoDB driver.
package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huynhanx03/go-repository/pkg/database"
	"github.com/huynhanx03/go-repository/pkg/filter"
)

const backendName = "mongodb"

// DefaultPrimaryKey is the document identifier field.
const DefaultPrimaryKey = "_id"

// mongoStore provides the primitive operation set over one collection.
// A transaction-bound store carries the session and threads it through the
// context of every call.
type mongoStore struct {
	coll    *mongo.Collection
	sess    mongo.Session
	idField string
}

var _ database.Store = (*mongoStore)(nil)

func (s *mongoStore) Name() string { return s.coll.Name() }

func (s *mongoStore) context(ctx context.Context) context.Context {
	if s.sess != nil {
		return mongo.NewSessionContext(ctx, s.sess)
	}
	return ctx
}

func (s *mongoStore) translate(f filter.Expression) (bson.M, error) {
	return Translate(f, s.idField)
}

func (s *mongoStore) InsertOne(ctx context.Context, doc database.Entity) (database.Entity, error) {
	res, err := s.coll.InsertOne(s.context(ctx), bson.M(doc))
	if err != nil {
		return nil, database.WrapBackend(backendName, "insertOne", err)
	}
	out := doc.Clone()
	if _, ok := out[s.idField]; !ok {
		out[s.idField] = res.InsertedID
	}
	return out, nil
}

func (s *mongoStore) InsertMany(ctx context.Context, docs []database.Entity) ([]database.Entity, error) {
	payload := make([]any, len(docs))
	for i, d := range docs {
		payload[i] = bson.M(d)
	}
	res, err := s.coll.InsertMany(s.context(ctx), payload)
	if err != nil {
		return nil, database.WrapBackend(backendName, "insertMany", err)
	}
	out := make([]database.Entity, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
		if _, ok := out[i][s.idField]; !ok && i < len(res.InsertedIDs) {
			out[i][s.idField] = res.InsertedIDs[i]
		}
	}
	return out, nil
}

func (s *mongoStore) FindOne(ctx context.Context, f filter.Expression, opts *database.FindOptions) (database.Entity, error) {
	pred, err := s.translate(f)
	if err != nil {
		return nil, err
	}
	fo := options.FindOne()
	if opts != nil {
		if len(opts.Sort) > 0 {
			fo.SetSort(buildSort(opts.Sort))
		}
		if len(opts.Fields) > 0 {
			fo.SetProjection(buildProjection(opts.Fields))
		}
		if opts.Offset > 0 {
			fo.SetSkip(int64(opts.Offset))
		}
	}
	var out database.Entity
	if err := s.coll.FindOne(s.context(ctx), pred, fo).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, database.WrapBackend(backendName, "findOne", err)
	}
	return out, nil
}

func (s *mongoStore) FindMany(ctx context.Context, f filter.Expression, opts *database.FindOptions) ([]database.Entity, error) {
	pred, err := s.translate(f)
	if err != nil {
		return nil, err
	}
	fo := options.Find()
	if opts != nil {
		if len(opts.Sort) > 0 {
			fo.SetSort(buildSort(opts.Sort))
		}
		if len(opts.Fields) > 0 {
			fo.SetProjection(buildProjection(opts.Fields))
		}
		if opts.Offset > 0 {
			fo.SetSkip(int64(opts.Offset))
		}
		if opts.Limit > 0 {
			fo.SetLimit(int64(opts.Limit))
		}
	}
	sctx := s.context(ctx)
	cursor, err := s.coll.Find(sctx, pred, fo)
	if err != nil {
		return nil, database.WrapBackend(backendName, "find", err)
	}
	out := []database.Entity{}
	if err := cursor.All(sctx, &out); err != nil {
		return nil, database.WrapBackend(backendName, "find", err)
	}
	return out, nil
}

func (s *mongoStore) UpdateOne(ctx context.Context, f filter.Expression, changes database.Entity) (database.Entity, error) {
	pred, err := s.translate(f)
	if err != nil {
		return nil, err
	}
	fo := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out database.Entity
	err = s.coll.FindOneAndUpdate(s.context(ctx), pred, bson.M{"$set": bson.M(changes)}, fo).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, database.WrapBackend(backendName, "updateOne", err)
	}
	return out, nil
}

func (s *mongoStore) UpdateMany(ctx context.Context, f filter.Expression, changes database.Entity) (int64, error) {
	pred, err := s.translate(f)
	if err != nil {
		return 0, err
	}
	res, err := s.coll.UpdateMany(s.context(ctx), pred, bson.M{"$set": bson.M(changes)})
	if err != nil {
		return 0, database.WrapBackend(backendName, "updateMany", err)
	}
	return res.MatchedCount, nil
}

func (s *mongoStore) DeleteOne(ctx context.Context, f filter.Expression) (bool, error) {
	pred, err := s.translate(f)
	if err != nil {
		return false, err
	}
	res, err := s.coll.DeleteOne(s.context(ctx), pred)
	if err != nil {
		return false, database.WrapBackend(backendName, "deleteOne", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *mongoStore) DeleteMany(ctx context.Context, f filter.Expression) (int64, error) {
	pred, err := s.translate(f)
	if err != nil {
		return 0, err
	}
	res, err := s.coll.DeleteMany(s.context(ctx), pred)
	if err != nil {
		return 0, database.WrapBackend(backendName, "deleteMany", err)
	}
	return res.DeletedCount, nil
}

func (s *mongoStore) Count(ctx context.Context, f filter.Expression) (int64, error) {
	pred, err := s.translate(f)
	if err != nil {
		return 0, err
	}
	n, err := s.coll.CountDocuments(s.context(ctx), pred)
	if err != nil {
		return 0, database.WrapBackend(backendName, "count", err)
	}
	return n, nil
}

func (s *mongoStore) Distinct(ctx context.Context, field string, f filter.Expression) ([]any, error) {
	pred, err := s.translate(f)
	if err != nil {
		return nil, err
	}
	vals, err := s.coll.Distinct(s.context(ctx), field, pred)
	if err != nil {
		return nil, database.WrapBackend(backendName, "distinct", err)
	}
	return vals, nil
}

// Upsert is a single atomic primitive here: FindOneAndUpdate with the upsert
// flag, $set for the update and $setOnInsert for the insert-only seed.
func (s *mongoStore) Upsert(ctx context.Context, f filter.Expression, changes, onInsert database.Entity) (database.Entity, error) {
	pred, err := s.translate(f)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M(changes)}
	if len(onInsert) > 0 {
		update["$setOnInsert"] = bson.M(onInsert)
	}
	fo := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out database.Entity
	if err := s.coll.FindOneAndUpdate(s.context(ctx), pred, update, fo).Decode(&out); err != nil {
		return nil, database.WrapBackend(backendName, "upsert", err)
	}
	return out, nil
}
