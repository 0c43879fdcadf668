// Package sourcetest provides a conformance suite for source drivers.
package sourcetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/docload/document"
	"github.com/hidal-go/docload/source"
)

// Fixture is a live store together with helpers to prepare test data.
type Fixture struct {
	Store source.Store
	// Seed creates a collection holding the given records. Every record has a string "_id".
	Seed func(ctx context.Context, col string, docs []map[string]interface{}) error
	// Equal returns a query matching records whose field equals the value.
	Equal func(field, value string) string
}

// Database is a constructor for store fixtures.
// The fixture must be released with the test.
type Database struct {
	Run func(tb testing.TB) Fixture
	// LenientCollections is set for stores that return no records for an unknown collection instead of an error.
	LenientCollections bool
}

const testUser = "tester"

var testList = []struct {
	name   string
	test   func(t testing.TB, f Fixture)
	strict bool // requires an error on unknown collections
}{
	{name: "scan", test: testScan},
	{name: "query", test: testQuery},
	{name: "query no match", test: testQueryNoMatch},
	{name: "missing collection", test: testMissingCollection, strict: true},
}

// TestSource runs all conformance tests against a store.
func TestSource(t *testing.T, db Database) {
	for _, c := range testList {
		c := c
		t.Run(c.name, func(t *testing.T) {
			if c.strict && db.LenientCollections {
				t.Skip("store does not fail on unknown collections")
			}
			f := db.Run(t)
			c.test(t, f)
		})
	}
}

var testRecords = []map[string]interface{}{
	{"_id": "1", "kind": "a", "n": 1},
	{"_id": "2", "kind": "b", "n": 2},
	{"_id": "3", "kind": "a", "n": 3},
}

func seed(t testing.TB, f Fixture, col string) *source.Reader {
	ctx := context.Background()
	require.NoError(t, f.Seed(ctx, col, testRecords))
	return source.NewReader(f.Store, testUser)
}

// checkDocs verifies that documents hold seeded records and share metadata.
// It returns document ids in result order.
func checkDocs(t testing.TB, docs []document.Document, meta document.Metadata) []string {
	var got []string
	for _, d := range docs {
		require.Equal(t, meta.User, d.ExtraInfo.User)
		require.Equal(t, meta.DBName, d.ExtraInfo.DBName)
		require.Equal(t, meta.Query, d.ExtraInfo.Query)

		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(d.Text), &rec))
		require.Contains(t, rec, "kind")
		require.Contains(t, rec, "n")
		got = append(got, d.ID)
	}
	return got
}

func testScan(t testing.TB, f Fixture) {
	const col = "scan_docs"
	r := seed(t, f, col)

	docs, err := r.Load(context.Background(), col)
	require.NoError(t, err)
	require.Len(t, docs, len(testRecords))
	ids := checkDocs(t, docs, document.Metadata{User: testUser, DBName: col})
	// both stores list a fresh collection in id order
	require.Equal(t, []string{"1", "2", "3"}, ids)
}

func testQuery(t testing.TB, f Fixture) {
	const col = "query_docs"
	r := seed(t, f, col)

	q := f.Equal("kind", "a")
	docs, err := r.Find(context.Background(), col, q)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	ids := checkDocs(t, docs, document.Metadata{User: testUser, DBName: col, Query: &q})
	require.ElementsMatch(t, []string{"1", "3"}, ids)
}

func testQueryNoMatch(t testing.TB, f Fixture) {
	const col = "nomatch_docs"
	r := seed(t, f, col)

	docs, err := r.Find(context.Background(), col, f.Equal("kind", "z"))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func testMissingCollection(t testing.TB, f Fixture) {
	r := source.NewReader(f.Store, testUser)
	docs, err := r.Load(context.Background(), "no_such_docs")
	require.Error(t, err)
	require.False(t, errors.Is(err, source.ErrValidation))
	require.Nil(t, docs)
}
