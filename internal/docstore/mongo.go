package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// mongoCodes maps MongoDB server error codes onto store codes.
var mongoCodes = map[int]Code{
	11000: CodeDuplicateKey,
	11001: CodeDuplicateKey,
	121:   CodeValidation,
	66:    CodeNotPermitted,
	13436: CodeNamespaceNotFound,
	26:    CodeNamespaceNotFound,
	100:   CodeCursorNotFound,
	43:    CodeCursorNotFound,
	20:    CodeNotPrimary,
	10107: CodeNotPrimary,
	13435: CodeNotPrimary,
	28:    CodeDatabaseNotFound,
	29:    CodeCollectionNotFound,
	125:   CodeCommandNotFound,
	59:    CodeCommandNotFound,
	167:   CodeWriteError,
	16500: CodeWriteConflict,
	112:   CodeWriteConflict,
}

// MongoStore is the MongoDB backend. One client is shared by all requests.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB and verifies the connection against the
// primary.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	d, id, err := withID(doc, func() string { return bson.NewObjectID().Hex() })
	if err != nil {
		return "", &Error{Op: "insert", Code: CodeValidation, Err: err}
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, d); err != nil {
		return "", mongoError("insert", err)
	}
	return id, nil
}

func (s *MongoStore) FindByID(ctx context.Context, collection, id string) (bson.Raw, error) {
	return s.FindOne(ctx, collection, Filter{idField: id})
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, filter Filter) (bson.Raw, error) {
	raw, err := s.db.Collection(collection).FindOne(ctx, bson.M(filter)).Raw()
	if err != nil {
		return nil, mongoError("find", err)
	}
	return cloneRaw(raw), nil
}

func (s *MongoStore) FindMany(ctx context.Context, collection string, filter Filter) ([]bson.Raw, error) {
	// ObjectID hex ids sort in creation order.
	opts := options.Find().SetSort(bson.D{{Key: idField, Value: 1}})

	cur, err := s.db.Collection(collection).Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, mongoError("find", err)
	}
	return drain(ctx, cur, "find")
}

func (s *MongoStore) UpdateByID(ctx context.Context, collection, id string, patch Patch, opts UpdateOptions) (bson.Raw, error) {
	set := bson.M{}
	for k, v := range patch {
		if k != idField {
			set[k] = v
		}
	}

	returnDoc := options.Before
	if opts.ReturnUpdated {
		returnDoc = options.After
	}
	findOpts := options.FindOneAndUpdate().SetReturnDocument(returnDoc)

	raw, err := s.db.Collection(collection).
		FindOneAndUpdate(ctx, bson.M{idField: id}, bson.M{"$set": set}, findOpts).
		Raw()
	if err != nil {
		return nil, mongoError("update", err)
	}
	return cloneRaw(raw), nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{idField: id})
	if err != nil {
		return false, mongoError("delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) SampleExcluding(ctx context.Context, collection, excludeID string, count int) ([]bson.Raw, error) {
	if count <= 0 {
		return []bson.Raw{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{idField: bson.M{"$ne": excludeID}}}},
		{{Key: "$sample", Value: bson.M{"size": count}}},
	}

	cur, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mongoError("sample", err)
	}
	return drain(ctx, cur, "sample")
}

func (s *MongoStore) EnsureIndexes(ctx context.Context, indexes ...Index) error {
	for _, idx := range indexes {
		model := mongo.IndexModel{
			Keys: bson.D{{Key: idx.Field, Value: 1}},
			Options: options.Index().
				SetName(idx.Collection + "_" + idx.Field).
				SetUnique(idx.Unique).
				SetSparse(idx.Sparse),
		}
		if _, err := s.db.Collection(idx.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return mongoError("create index", err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return mongoError("ping", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func drain(ctx context.Context, cur *mongo.Cursor, op string) ([]bson.Raw, error) {
	defer cur.Close(ctx)

	out := []bson.Raw{}
	for cur.Next(ctx) {
		out = append(out, cloneRaw(cur.Current))
	}
	if err := cur.Err(); err != nil {
		return nil, mongoError(op, err)
	}
	return out, nil
}

// mongoError converts a driver error into ErrNotFound or a tagged *Error.
func mongoError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return &Error{Op: op, Code: mongoCode(err), Err: err}
}

func mongoCode(err error) Code {
	if mongo.IsDuplicateKeyError(err) {
		return CodeDuplicateKey
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if c, ok := mongoCodes[e.Code]; ok {
				return c
			}
		}
		if we.WriteConcernError != nil {
			if c, ok := mongoCodes[we.WriteConcernError.Code]; ok {
				return c
			}
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if c, ok := mongoCodes[int(ce.Code)]; ok {
			return c
		}
	}

	return CodeUnknown
}
