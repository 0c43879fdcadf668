// Package loader exposes a source reader as an eino document loader.
package loader

import (
	"context"
	"errors"

	einodoc "github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"github.com/hidal-go/docload/document"
)

// ErrNoCollection is returned when the loader source does not name a collection.
var ErrNoCollection = errors.New("loader: source uri must name a collection")

// Reader loads documents from a collection. It is implemented by *source.Reader.
type Reader interface {
	Load(ctx context.Context, col string) ([]document.Document, error)
	Find(ctx context.Context, col string, query string) ([]document.Document, error)
}

type options struct {
	query *string
}

// WithQuery filters loaded records with a store-specific query.
func WithQuery(query string) einodoc.LoaderOption {
	return einodoc.WrapLoaderImplSpecificOptFn(func(o *options) {
		o.query = &query
	})
}

var _ einodoc.Loader = (*Loader)(nil)

// Loader loads a collection named by the source URI.
type Loader struct {
	r Reader
}

func New(r Reader) *Loader {
	return &Loader{r: r}
}

func (l *Loader) Load(ctx context.Context, src einodoc.Source, opts ...einodoc.LoaderOption) ([]*schema.Document, error) {
	if src.URI == "" {
		return nil, ErrNoCollection
	}
	o := einodoc.GetLoaderImplSpecificOptions(&options{}, opts...)

	var (
		docs []document.Document
		err  error
	)
	if o.query == nil {
		docs, err = l.r.Load(ctx, src.URI)
	} else {
		docs, err = l.r.Find(ctx, src.URI, *o.query)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*schema.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, &schema.Document{
			ID:       d.ID,
			Content:  d.Text,
			MetaData: d.ExtraInfo.Map(),
		})
	}
	return out, nil
}
