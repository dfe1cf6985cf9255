// Package docstore is the document store client shared by the user and
// message services. Backends store BSON documents in named collections and
// report failures as *Error values tagged with a coarse Code.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrNotFound is returned when no document matches an id or filter.
var ErrNotFound = errors.New("document not found")

// Filter selects documents by equality on top-level fields.
type Filter map[string]any

// Patch lists top-level fields to overwrite on a document.
type Patch map[string]any

// Index describes a single-field index a collection must carry.
type Index struct {
	Collection string
	Field      string
	Unique     bool
	// Sparse skips documents where the field is absent or null.
	Sparse bool
}

// UpdateOptions controls what UpdateByID returns.
type UpdateOptions struct {
	// ReturnUpdated returns the document after the patch instead of before.
	ReturnUpdated bool
}

// Store is the operation set every backend provides.
//
// Documents passed to Insert are any value bson can marshal; an "_id" string
// field is assigned when missing. Reads return raw BSON that callers decode
// with Decode or DecodeAll.
type Store interface {
	Insert(ctx context.Context, collection string, doc any) (string, error)
	FindByID(ctx context.Context, collection, id string) (bson.Raw, error)
	FindOne(ctx context.Context, collection string, filter Filter) (bson.Raw, error)
	// FindMany returns every match in insertion order.
	FindMany(ctx context.Context, collection string, filter Filter) ([]bson.Raw, error)
	UpdateByID(ctx context.Context, collection, id string, patch Patch, opts UpdateOptions) (bson.Raw, error)
	DeleteByID(ctx context.Context, collection, id string) (bool, error)
	// SampleExcluding draws up to count documents uniformly at random,
	// never returning the document whose id is excludeID. Fewer documents
	// are returned when the collection cannot satisfy count.
	SampleExcluding(ctx context.Context, collection, excludeID string, count int) ([]bson.Raw, error)
	EnsureIndexes(ctx context.Context, indexes ...Index) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Code classifies a store failure.
type Code string

const (
	CodeUnknown            Code = "unknown"
	CodeNotFound           Code = "not_found"
	CodeDuplicateKey       Code = "duplicate_key"
	CodeValidation         Code = "validation_failed"
	CodeNotPermitted       Code = "not_permitted"
	CodeNamespaceNotFound  Code = "namespace_not_found"
	CodeCursorNotFound     Code = "cursor_not_found"
	CodeNotPrimary         Code = "not_primary"
	CodeDatabaseNotFound   Code = "database_not_found"
	CodeCollectionNotFound Code = "collection_not_found"
	CodeCommandNotFound    Code = "command_not_found"
	CodeWriteError         Code = "write_error"
	CodeWriteConflict      Code = "write_conflict"
)

// Error is the tagged error every backend returns for store-level failures.
type Error struct {
	Op   string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("docstore %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("docstore %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the store code carried by err, if any.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotFound) {
		return CodeNotFound
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// IsDuplicateKey reports whether err is a uniqueness violation.
func IsDuplicateKey(err error) bool {
	return CodeOf(err) == CodeDuplicateKey
}

// Decode unmarshals a raw document into a new T.
func Decode[T any](raw bson.Raw) (*T, error) {
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// DecodeAll unmarshals every raw document into a slice of T. The result is
// never nil.
func DecodeAll[T any](raws []bson.Raw) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := bson.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
