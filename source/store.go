// Package source reads records from document stores and normalizes them into documents.
package source

import (
	"context"
	"encoding/json"

	"github.com/hidal-go/docload/base"
)

// Store is a client handle to a document store.
type Store interface {
	base.DB
	// AllDocs lists every record of a collection, including record bodies.
	AllDocs(ctx context.Context, col string) (RowList, error)
	// Find runs a store-specific filter expression against a collection.
	Find(ctx context.Context, col string, query string) (Result, error)
}

// Result is a closed set of result shapes returned by a store: RowList or DocsList.
type Result interface {
	isResult()
}

// Row is a single listing row.
type Row struct {
	ID  string // empty if the row carries no id
	Doc json.RawMessage
}

// RowList is an ordered list of rows, each identified by an "id" field.
type RowList []Row

// DocsList is an ordered list of raw records, each expected to carry an "_id" field.
type DocsList []json.RawMessage

func (RowList) isResult()  {}
func (DocsList) isResult() {}
