package couch

import (
	"context"
	"encoding/json"
	"net"
	"net/url"
	"strconv"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // The CouchDB driver

	"github.com/hidal-go/docload/base"
	"github.com/hidal-go/docload/source"
)

const (
	Name   = "couch"
	Driver = "couch"
)

const selectorField = "selector"

// OptConflicts adds "_conflicts" to documents listed by AllDocs.
const OptConflicts = "conflicts"

var _ source.Store = (*Store)(nil)

func init() {
	source.Register(source.Registration{
		Registration: base.Registration{
			Name: Name, Title: "CouchDB",
			Local: false,
		},
		Open: func(_ context.Context, cfg source.Config) (source.Store, error) {
			st, err := Dial(DSN(cfg), cfg.Options)
			if err != nil {
				return nil, err
			}
			return st, nil
		},
	})
}

// URL builds a server address with basic credentials.
// Credentials are omitted if user is empty.
func URL(user, pwd, host string, port int) string {
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port))}
	if user != "" {
		u.User = url.UserPassword(user, pwd)
	}
	return u.String()
}

// DSN returns the server address from the config. A full URL wins over host and port.
func DSN(cfg source.Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return URL(cfg.User, cfg.Password, cfg.Host, cfg.Port)
}

// NewClient creates a kivik client for a CouchDB server.
// No requests are made until the client is used.
func NewClient(dsn string) (*kivik.Client, error) {
	return kivik.New(Driver, dsn)
}

// Dial creates a store for the CouchDB server at dsn.
func Dial(dsn string, opt source.Options) (*Store, error) {
	cli, err := NewClient(dsn)
	if err != nil {
		return nil, err
	}
	return New(cli, opt), nil
}

// New wraps an existing client. The store takes ownership of it.
func New(cli *kivik.Client, opt source.Options) *Store {
	return &Store{cli: cli, conflicts: opt.GetBool(OptConflicts, false)}
}

// Store reads CouchDB databases as collections.
type Store struct {
	cli       *kivik.Client
	conflicts bool
}

// Client returns the underlying kivik client.
func (s *Store) Client() *kivik.Client {
	return s.cli
}

func (s *Store) Close() error {
	return s.cli.Close()
}

// AllDocs lists a database through _all_docs with document bodies included.
func (s *Store) AllDocs(ctx context.Context, col string) (source.RowList, error) {
	params := map[string]interface{}{"include_docs": true}
	if s.conflicts {
		params["conflicts"] = true
	}
	rs := s.cli.DB(col).AllDocs(ctx, kivik.Params(params))
	defer rs.Close()

	var out source.RowList
	for rs.Next() {
		id, err := rs.ID()
		if err != nil {
			return nil, err
		}
		if id == "" {
			// rows without an id may carry no doc either; leave the rejection to the reader
			out = append(out, source.Row{})
			continue
		}
		var doc json.RawMessage
		if err := rs.ScanDoc(&doc); err != nil {
			return nil, err
		}
		out = append(out, source.Row{ID: id, Doc: doc})
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Find runs a Mango query through _find.
func (s *Store) Find(ctx context.Context, col string, query string) (source.Result, error) {
	req, err := findRequest(query)
	if err != nil {
		return nil, err
	}
	rs := s.cli.DB(col).Find(ctx, req)
	defer rs.Close()

	var out source.DocsList
	for rs.Next() {
		var doc json.RawMessage
		if err := rs.ScanDoc(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// findRequest turns a query into a Mango request body.
// An object without a "selector" key is treated as a bare selector.
func findRequest(query string) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(query), &obj); err != nil {
		return nil, err
	}
	if _, ok := obj[selectorField]; ok {
		return json.RawMessage(query), nil
	}
	return json.Marshal(map[string]json.RawMessage{
		selectorField: json.RawMessage(query),
	})
}
