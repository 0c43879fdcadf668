package couchtest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ory/dockertest"

	"github.com/hidal-go/docload/source/couch"
	"github.com/hidal-go/docload/source/sourcetest"
)

func init() {
	const vers = "3"
	sourcetest.Register(couch.Name, sourcetest.Version{
		Name: vers, Factory: CouchVersion(vers),
	})
}

// CouchVersion runs a CouchDB container of a given version for each test.
func CouchVersion(vers string) sourcetest.Database {
	return sourcetest.Database{
		Run: func(tb testing.TB) sourcetest.Fixture {
			pool, err := dockertest.NewPool("")
			if err != nil {
				tb.Skip("docker is not available: ", err)
			}

			cont, err := pool.Run("couchdb", vers, []string{
				"COUCHDB_USER=test",
				"COUCHDB_PASSWORD=test",
			})
			if err != nil {
				tb.Skip("cannot start couchdb: ", err)
			}
			tb.Cleanup(func() {
				_ = cont.Close()
			})

			ctx := context.Background()

			addr := "http://test:test@" + cont.GetHostPort("5984/tcp")
			err = pool.Retry(func() error {
				cli, err := couch.NewClient(addr)
				if err != nil {
					return err
				}
				defer cli.Close()
				_, err = cli.Version(ctx)
				return err
			})
			if err != nil {
				tb.Fatal(err)
			}

			st, err := couch.Dial(addr, nil)
			if err != nil {
				tb.Fatal(err)
			}
			tb.Cleanup(func() {
				_ = st.Close()
			})
			return sourcetest.Fixture{
				Store: st,
				Seed: func(ctx context.Context, col string, docs []map[string]interface{}) error {
					cli := st.Client()
					if err := cli.CreateDB(ctx, col); err != nil {
						return err
					}
					db := cli.DB(col)
					for _, d := range docs {
						id, _ := d["_id"].(string)
						if _, err := db.Put(ctx, id, d); err != nil {
							return err
						}
					}
					return nil
				},
				Equal: func(field, value string) string {
					data, _ := json.Marshal(map[string]interface{}{
						"selector": map[string]interface{}{field: value},
					})
					return string(data)
				},
			}
		},
	}
}
