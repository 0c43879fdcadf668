package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/hidal-go/docload/document"
)

const (
	rowIDField    = "id"
	recordIDField = "_id"
)

// Option configures a Reader.
type Option func(r *Reader)

// WithLogger sets a diagnostic logger. Logs never affect the outcome of a load.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Reader) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMaxDocs sets the maximum number of documents reported by MaxDocs.
func WithMaxDocs(n int) Option {
	return func(r *Reader) {
		r.maxDocs = n
	}
}

// Reader loads records from a store and converts them to documents.
// It owns the store and is not safe for concurrent use.
type Reader struct {
	store   Store
	user    string
	maxDocs int
	log     logrus.FieldLogger
}

// NewReader wraps a store. The user is reported in the metadata of every document.
func NewReader(store Store, user string, opts ...Option) *Reader {
	r := &Reader{
		store:   store,
		user:    user,
		maxDocs: DefaultMaxDocs,
		log:     discardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open connects to a store with a registered driver and returns a reader for it.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Reader, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := ByName(cfg.Driver)
	if reg == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	store, err := reg.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithMaxDocs(cfg.MaxDocs)}, opts...)
	return NewReader(store, cfg.User, opts...), nil
}

// MaxDocs returns the configured document limit.
//
// TODO: apply the limit once callers agree on truncation versus server-side paging.
func (r *Reader) MaxDocs() int {
	return r.maxDocs
}

// Close releases the store.
func (r *Reader) Close() error {
	return r.store.Close()
}

// Load returns every record of the collection as a document.
func (r *Reader) Load(ctx context.Context, col string) ([]document.Document, error) {
	return r.load(ctx, col, nil)
}

// Find returns records of the collection matching the query.
func (r *Reader) Find(ctx context.Context, col string, query string) ([]document.Document, error) {
	return r.load(ctx, col, &query)
}

func (r *Reader) load(ctx context.Context, col string, query *string) ([]document.Document, error) {
	meta := document.Metadata{User: r.user, DBName: col, Query: query}
	log := r.log.WithField("db_name", col)

	var (
		res Result
		err error
	)
	if query == nil {
		log.Debug("showing all docs")
		res, err = r.store.AllDocs(ctx, col)
	} else {
		log.WithField("query", *query).Debug("executing query")
		res, err = r.store.Find(ctx, col, *query)
	}
	if err != nil {
		return nil, err
	}
	return normalize(log, res, meta)
}

func normalize(log logrus.FieldLogger, res Result, meta document.Metadata) ([]document.Document, error) {
	switch res := res.(type) {
	case nil:
		log.Debug("empty result")
		return []document.Document{}, nil
	case RowList:
		log.WithField("rows", len(res)).Debug("got row list")
		out := make([]document.Document, 0, len(res))
		for _, row := range res {
			if row.ID == "" {
				return nil, ErrMissingField{Field: rowIDField}
			}
			d, err := document.New(row.ID, row.Doc, meta)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	case DocsList:
		log.WithField("docs", len(res)).Debug("got docs list")
		out := make([]document.Document, 0, len(res))
		for _, raw := range res {
			id, err := recordID(raw)
			if err != nil {
				return nil, err
			}
			d, err := document.New(id, raw, meta)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	default:
		panic(fmt.Errorf("unsupported result type: %T", res))
	}
}

// recordID extracts the "_id" field of a raw record.
func recordID(raw json.RawMessage) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", err
	}
	v, ok := fields[recordIDField]
	if !ok {
		return "", ErrMissingField{Field: recordIDField}
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var oid struct {
		Hex string `json:"$oid"`
	}
	if err := json.Unmarshal(v, &oid); err == nil && oid.Hex != "" {
		return oid.Hex, nil
	}
	return string(v), nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
