package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/hidal-go/docload/document"
)

type fakeStore struct {
	rows    RowList
	found   Result
	err     error
	queries []string
	scans   int
	closed  bool
}

func (s *fakeStore) AllDocs(ctx context.Context, col string) (RowList, error) {
	s.scans++
	return s.rows, s.err
}

func (s *fakeStore) Find(ctx context.Context, col string, query string) (Result, error) {
	s.queries = append(s.queries, query)
	return s.found, s.err
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestLoadScan(t *testing.T) {
	st := &fakeStore{rows: RowList{
		{ID: "1", Doc: raw(`{"amount":5}`)},
		{ID: "2", Doc: raw(`{"amount":7}`)},
	}}
	r := NewReader(st, "admin")

	docs, err := r.Load(context.Background(), "orders")
	require.NoError(t, err)
	meta := document.Metadata{User: "admin", DBName: "orders"}
	require.Equal(t, []document.Document{
		{ID: "1", Text: `{"amount": 5}`, ExtraInfo: meta},
		{ID: "2", Text: `{"amount": 7}`, ExtraInfo: meta},
	}, docs)
	require.Equal(t, 1, st.scans)
	require.Empty(t, st.queries)
}

func TestLoadScanEmpty(t *testing.T) {
	r := NewReader(&fakeStore{}, "admin")
	docs, err := r.Load(context.Background(), "orders")
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestFindDocsList(t *testing.T) {
	const q = `{"selector":{"v":1}}`
	st := &fakeStore{found: DocsList{raw(`{"_id":"a","v":1}`)}}
	r := NewReader(st, "admin")

	docs, err := r.Find(context.Background(), "orders", q)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "a", docs[0].ID)
	require.Equal(t, `{"_id": "a", "v": 1}`, docs[0].Text)
	require.NotNil(t, docs[0].ExtraInfo.Query)
	require.Equal(t, q, *docs[0].ExtraInfo.Query)
	require.Equal(t, []string{q}, st.queries)
	require.Zero(t, st.scans)
}

func TestFindRowList(t *testing.T) {
	st := &fakeStore{found: RowList{
		{ID: "x", Doc: raw(`{"_id":"x"}`)},
		{ID: "y", Doc: raw(`{"_id":"y"}`)},
	}}
	docs, err := NewReader(st, "").Find(context.Background(), "col", "q")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "x", docs[0].ID)
	require.Equal(t, "y", docs[1].ID)
}

func TestFindNilResult(t *testing.T) {
	docs, err := NewReader(&fakeStore{}, "").Find(context.Background(), "col", "q")
	require.NoError(t, err)
	require.NotNil(t, docs)
	require.Empty(t, docs)
}

var missingIDCases = []struct {
	name  string
	store *fakeStore
	query *string
	field string
}{
	{
		name: "scan",
		store: &fakeStore{rows: RowList{
			{ID: "1", Doc: raw(`{"a":1}`)},
			{Doc: raw(`{"a":2}`)},
		}},
		field: "id",
	},
	{
		name: "query rows",
		store: &fakeStore{found: RowList{
			{Doc: raw(`{"a":2}`)},
		}},
		query: new(string),
		field: "id",
	},
	{
		name: "query docs",
		store: &fakeStore{found: DocsList{
			raw(`{"_id":"a"}`),
			raw(`{"id":"b"}`),
		}},
		query: new(string),
		field: "_id",
	},
}

func TestMissingID(t *testing.T) {
	for _, c := range missingIDCases {
		t.Run(c.name, func(t *testing.T) {
			r := NewReader(c.store, "admin")
			var (
				docs []document.Document
				err  error
			)
			if c.query == nil {
				docs, err = r.Load(context.Background(), "orders")
			} else {
				docs, err = r.Find(context.Background(), "orders", *c.query)
			}
			require.Nil(t, docs)
			require.True(t, errors.Is(err, ErrValidation))
			var me ErrMissingField
			require.ErrorAs(t, err, &me)
			require.Equal(t, c.field, me.Field)
			require.Contains(t, err.Error(), c.field)
		})
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	exp := errors.New("connection refused")
	r := NewReader(&fakeStore{err: exp}, "admin")

	_, err := r.Load(context.Background(), "orders")
	require.Equal(t, exp, err)

	_, err = r.Find(context.Background(), "orders", "{}")
	require.Equal(t, exp, err)
}

func TestSharedMetadata(t *testing.T) {
	st := &fakeStore{found: DocsList{
		raw(`{"_id":"a","n":1}`),
		raw(`{"_id":"b","n":2}`),
		raw(`{"_id":"c","n":3}`),
	}}
	docs, err := NewReader(st, "admin").Find(context.Background(), "orders", "q")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	first, err := json.Marshal(docs[0].ExtraInfo)
	require.NoError(t, err)
	for _, d := range docs[1:] {
		data, err := json.Marshal(d.ExtraInfo)
		require.NoError(t, err)
		require.Equal(t, first, data)
	}
}

func TestRoundTrip(t *testing.T) {
	bodies := []string{
		`{"_id":"a","nested":{"list":[1,2.5,"x"],"flag":true},"empty":null}`,
		`{"_id":"b","s":"comma, colon: quote \" end"}`,
	}
	var list DocsList
	for _, b := range bodies {
		list = append(list, raw(b))
	}
	docs, err := NewReader(&fakeStore{found: list}, "").Find(context.Background(), "c", "q")
	require.NoError(t, err)
	for i, d := range docs {
		var exp, act interface{}
		require.NoError(t, json.Unmarshal([]byte(bodies[i]), &exp))
		require.NoError(t, json.Unmarshal([]byte(d.Text), &act))
		require.Equal(t, exp, act)
	}
}

var recordIDCases = []struct {
	raw string
	exp string
}{
	{raw: `{"_id":"a"}`, exp: "a"},
	{raw: `{"_id":{"$oid":"5f1d7f5e9b1e8a3c4d2b1a00"}}`, exp: "5f1d7f5e9b1e8a3c4d2b1a00"},
	{raw: `{"_id":42}`, exp: "42"},
}

func TestRecordID(t *testing.T) {
	for _, c := range recordIDCases {
		id, err := recordID(raw(c.raw))
		require.NoError(t, err)
		require.Equal(t, c.exp, id)
	}
	_, err := recordID(raw(`[1,2]`))
	require.Error(t, err)
}

func TestLoggerDoesNotAffectResult(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	st := &fakeStore{rows: RowList{{ID: "1", Doc: raw(`{}`)}}}
	docs, err := NewReader(st, "u", WithLogger(log)).Load(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Contains(t, buf.String(), "showing all docs")
	require.Contains(t, buf.String(), "got row list")
}

func TestReaderClose(t *testing.T) {
	st := &fakeStore{}
	r := NewReader(st, "u", WithMaxDocs(5))
	require.Equal(t, 5, r.MaxDocs())
	require.NoError(t, r.Close())
	require.True(t, st.closed)
}
