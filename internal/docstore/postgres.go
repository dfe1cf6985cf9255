package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// pqCodes maps PostgreSQL SQLSTATE codes onto store codes.
var pqCodes = map[pq.ErrorCode]Code{
	"23505": CodeDuplicateKey,
	"23502": CodeValidation,
	"23514": CodeValidation,
	"22P02": CodeValidation,
	"25006": CodeNotPermitted,
	"42501": CodeNotPermitted,
	"42P01": CodeCollectionNotFound,
	"3D000": CodeDatabaseNotFound,
	"34000": CodeCursorNotFound,
	"42883": CodeCommandNotFound,
	"40001": CodeWriteConflict,
	"40P01": CodeWriteConflict,
}

// documentRow is one document of any collection. Bodies are stored as
// relaxed Extended JSON so the bson tags on domain types drive both
// backends.
type documentRow struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	Seq        int64           `bun:"seq,pk,autoincrement"`
	Collection string          `bun:"collection,notnull"`
	ID         string          `bun:"id,notnull"`
	Body       json.RawMessage `bun:"body,type:jsonb,notnull"`
	CreatedAt  time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}

// PostgresStore keeps documents in a single JSONB table.
type PostgresStore struct {
	db *bun.DB
}

func newBunDB(sqlDB *sql.DB) *bun.DB {
	return bun.NewDB(sqlDB, pgdialect.New())
}

// NewPostgresStore opens the connection pool, verifies it and creates the
// documents table when missing.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	s := &PostgresStore{db: newBunDB(sqlDB)}
	if err := s.createSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*documentRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return pqError("create table", err)
	}

	_, err = s.db.ExecContext(ctx,
		"CREATE UNIQUE INDEX IF NOT EXISTS documents_collection_id_key ON documents (collection, id)")
	if err != nil {
		return pqError("create index", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	d, id, err := withID(doc, uuid.NewString)
	if err != nil {
		return "", &Error{Op: "insert", Code: CodeValidation, Err: err}
	}
	body, err := bson.MarshalExtJSON(d, false, false)
	if err != nil {
		return "", &Error{Op: "insert", Code: CodeValidation, Err: err}
	}

	row := &documentRow{
		Collection: collection,
		ID:         id,
		Body:       body,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", pqError("insert", err)
	}
	return id, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, collection, id string) (bson.Raw, error) {
	row := new(documentRow)
	err := s.db.NewSelect().
		Model(row).
		Where("collection = ?", collection).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, pqError("find", err)
	}
	return rowToRaw(row)
}

func (s *PostgresStore) FindOne(ctx context.Context, collection string, filter Filter) (bson.Raw, error) {
	q, err := s.filtered(collection, filter)
	if err != nil {
		return nil, err
	}

	row := new(documentRow)
	if err := q.Model(row).Order("seq ASC").Limit(1).Scan(ctx); err != nil {
		return nil, pqError("find", err)
	}
	return rowToRaw(row)
}

func (s *PostgresStore) FindMany(ctx context.Context, collection string, filter Filter) ([]bson.Raw, error) {
	q, err := s.filtered(collection, filter)
	if err != nil {
		return nil, err
	}

	var rows []documentRow
	if err := q.Model(&rows).Order("seq ASC").Scan(ctx); err != nil {
		return nil, pqError("find", err)
	}
	return rowsToRaw(rows)
}

// filtered builds a select restricted to collection whose bodies contain
// every filter field.
func (s *PostgresStore) filtered(collection string, filter Filter) (*bun.SelectQuery, error) {
	q := s.db.NewSelect().Where("collection = ?", collection)

	if id, ok := filter[idField]; ok {
		q = q.Where("id = ?", id)
	}

	rest := bson.M{}
	for k, v := range filter {
		if k != idField {
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		contains, err := bson.MarshalExtJSON(rest, false, false)
		if err != nil {
			return nil, &Error{Op: "find", Code: CodeValidation, Err: err}
		}
		q = q.Where("body @> CAST(? AS jsonb)", string(contains))
	}
	return q, nil
}

func (s *PostgresStore) UpdateByID(ctx context.Context, collection, id string, patch Patch, opts UpdateOptions) (bson.Raw, error) {
	var before, after bson.Raw

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(documentRow)
		err := tx.NewSelect().
			Model(row).
			Where("collection = ?", collection).
			Where("id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return pqError("update", err)
		}

		before, err = rowToRaw(row)
		if err != nil {
			return err
		}

		var d bson.D
		if err := bson.Unmarshal(before, &d); err != nil {
			return &Error{Op: "update", Code: CodeValidation, Err: err}
		}
		d, err = mergePatch(d, patch)
		if err != nil {
			return &Error{Op: "update", Code: CodeValidation, Err: err}
		}
		body, err := bson.MarshalExtJSON(d, false, false)
		if err != nil {
			return &Error{Op: "update", Code: CodeValidation, Err: err}
		}

		_, err = tx.NewUpdate().
			Model((*documentRow)(nil)).
			Set("body = CAST(? AS jsonb)", string(body)).
			Where("seq = ?", row.Seq).
			Exec(ctx)
		if err != nil {
			return pqError("update", err)
		}

		after, err = bson.Marshal(d)
		if err != nil {
			return &Error{Op: "update", Code: CodeValidation, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.ReturnUpdated {
		return after, nil
	}
	return before, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*documentRow)(nil)).
		Where("collection = ?", collection).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, pqError("delete", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, pqError("delete", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) SampleExcluding(ctx context.Context, collection, excludeID string, count int) ([]bson.Raw, error) {
	if count <= 0 {
		return []bson.Raw{}, nil
	}

	var rows []documentRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("collection = ?", collection).
		Where("id <> ?", excludeID).
		OrderExpr("random()").
		Limit(count).
		Scan(ctx)
	if err != nil {
		return nil, pqError("sample", err)
	}
	return rowsToRaw(rows)
}

// EnsureIndexes creates partial expression indexes on the JSONB body. Sparse
// indexes need no special handling: NULL never collides in a unique index.
func (s *PostgresStore) EnsureIndexes(ctx context.Context, indexes ...Index) error {
	for _, idx := range indexes {
		kind := "INDEX"
		if idx.Unique {
			kind = "UNIQUE INDEX"
		}
		name := "documents_" + sanitizeIdent(idx.Collection) + "_" + sanitizeIdent(idx.Field)

		query := fmt.Sprintf(
			"CREATE %s IF NOT EXISTS ? ON documents ((body->>?)) WHERE collection = ?", kind)
		if _, err := s.db.ExecContext(ctx, query, bun.Ident(name), idx.Field, idx.Collection); err != nil {
			return pqError("create index", err)
		}
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return pqError("ping", err)
	}
	return nil
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

func rowToRaw(row *documentRow) (bson.Raw, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON(row.Body, false, &d); err != nil {
		return nil, &Error{Op: "decode", Code: CodeValidation, Err: err}
	}
	raw, err := bson.Marshal(d)
	if err != nil {
		return nil, &Error{Op: "decode", Code: CodeValidation, Err: err}
	}
	return raw, nil
}

func rowsToRaw(rows []documentRow) ([]bson.Raw, error) {
	out := make([]bson.Raw, 0, len(rows))
	for i := range rows {
		raw, err := rowToRaw(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func sanitizeIdent(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, s)
}

// pqError converts a database error into ErrNotFound or a tagged *Error.
func pqError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}

	code := CodeUnknown
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if c, ok := pqCodes[pqErr.Code]; ok {
			code = c
		}
	}
	return &Error{Op: op, Code: code, Err: err}
}
