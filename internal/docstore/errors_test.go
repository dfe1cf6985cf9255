package docstore

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestMongoErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"duplicate key", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, CodeDuplicateKey},
		{"validation", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121}}}, CodeValidation},
		{"not primary", mongo.CommandError{Code: 10107}, CodeNotPrimary},
		{"write conflict", mongo.CommandError{Code: 112}, CodeWriteConflict},
		{"unknown", mongo.CommandError{Code: 9999}, CodeUnknown},
		{"plain", errors.New("boom"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mongoError("insert", tt.err)
			assert.Equal(t, tt.want, CodeOf(err))
		})
	}

	assert.ErrorIs(t, mongoError("find", mongo.ErrNoDocuments), ErrNotFound)
}

func TestPostgresErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"unique violation", &pq.Error{Code: "23505"}, CodeDuplicateKey},
		{"check violation", &pq.Error{Code: "23514"}, CodeValidation},
		{"serialization", fmt.Errorf("tx: %w", &pq.Error{Code: "40001"}), CodeWriteConflict},
		{"undefined table", &pq.Error{Code: "42P01"}, CodeCollectionNotFound},
		{"other", &pq.Error{Code: "XX000"}, CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(pqError("insert", tt.err)))
		})
	}

	assert.ErrorIs(t, pqError("find", sql.ErrNoRows), ErrNotFound)

	tagged := &Error{Op: "update", Code: CodeValidation}
	assert.Same(t, tagged, pqError("update", tagged))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: "insert", Code: CodeDuplicateKey, Err: errors.New("E11000")}
	assert.Equal(t, "docstore insert: duplicate_key: E11000", err.Error())
	assert.Equal(t, "docstore ping: unknown", (&Error{Op: "ping", Code: CodeUnknown}).Error())
	assert.Equal(t, Code(""), CodeOf(nil))
}
