package mongo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hidal-go/docload/base"
	"github.com/hidal-go/docload/source"
)

const Name = "mongo"

// DefaultDatabase holds collections when neither the URL nor options name a database.
const DefaultDatabase = "test"

const idField = "_id"

// OptBatchSize sets the number of records fetched per cursor batch; zero keeps the server default.
const OptBatchSize = "batch_size"

var _ source.Store = (*Store)(nil)

func init() {
	source.Register(source.Registration{
		Registration: base.Registration{
			Name: Name, Title: "MongoDB",
			Local: false,
		},
		Open: func(ctx context.Context, cfg source.Config) (source.Store, error) {
			st, err := Dial(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return st, nil
		},
	})
}

// Addr returns a connection string for the config. A full URL wins over host and port.
func Addr(cfg source.Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	connString := "mongodb://"
	if cfg.User != "" {
		connString = fmt.Sprintf("%s%s:%s@", connString, url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password))
	}
	return fmt.Sprintf("%s%s:%d", connString, cfg.Host, cfg.Port)
}

// DatabaseName picks the database from the "database_name" option, then from the URL path.
func DatabaseName(cfg source.Config) string {
	def := DefaultDatabase
	if u, err := url.Parse(cfg.URL); err == nil && cfg.URL != "" {
		if name := strings.Trim(u.Path, "/"); name != "" {
			def = name
		}
	}
	return cfg.Options.GetString("database_name", def)
}

// BatchSize reads the OptBatchSize option. Values outside (0, MaxInt32] yield zero.
func BatchSize(cfg source.Config) int32 {
	n := cfg.Options.GetInt(OptBatchSize, 0)
	if n <= 0 || n > math.MaxInt32 {
		return 0
	}
	return int32(n)
}

func dialMongo(ctx context.Context, addr string) (*mongo.Client, error) {
	client, err := mongo.NewClient(options.Client().ApplyURI(addr))
	if err != nil {
		return nil, err
	}
	if err = client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Dial connects to a MongoDB server.
func Dial(ctx context.Context, cfg source.Config) (*Store, error) {
	cli, err := dialMongo(ctx, Addr(cfg))
	if err != nil {
		return nil, err
	}
	st := New(cli, DatabaseName(cfg))
	st.batchSize = BatchSize(cfg)
	return st, nil
}

// New wraps a connected client. The store takes ownership of it.
func New(cli *mongo.Client, dbName string) *Store {
	return &Store{cli: cli, db: cli.Database(dbName)}
}

// Store reads MongoDB collections of a single database.
type Store struct {
	cli       *mongo.Client
	db        *mongo.Database
	batchSize int32
}

func (s *Store) findOptions() *options.FindOptions {
	opt := options.Find()
	if s.batchSize > 0 {
		opt.SetBatchSize(s.batchSize)
	}
	return opt
}

// Database returns the database collections are read from.
func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) Close() error {
	return s.cli.Disconnect(context.TODO())
}

// AllDocs lists every record of a collection, keyed by "_id".
func (s *Store) AllDocs(ctx context.Context, col string) (source.RowList, error) {
	cur, err := s.db.Collection(col).Find(ctx, bson.D{}, s.findOptions())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out source.RowList
	for cur.Next(ctx) {
		doc, err := toJSON(cur.Current)
		if err != nil {
			return nil, err
		}
		out = append(out, source.Row{ID: docID(cur.Current), Doc: doc})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Find runs a filter written in relaxed Extended JSON.
func (s *Store) Find(ctx context.Context, col string, query string) (source.Result, error) {
	var filter bson.D
	if err := bson.UnmarshalExtJSON([]byte(query), false, &filter); err != nil {
		return nil, err
	}
	cur, err := s.db.Collection(col).Find(ctx, filter, s.findOptions())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out source.DocsList
	for cur.Next(ctx) {
		doc, err := toJSON(cur.Current)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func toJSON(doc bson.Raw) ([]byte, error) {
	return bson.MarshalExtJSON(doc, false, false)
}

// docID returns a string form of the "_id" field, or an empty string if there is none.
func docID(doc bson.Raw) string {
	v, err := doc.LookupErr(idField)
	if err != nil {
		return ""
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return v.String()
}
