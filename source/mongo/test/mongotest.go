package mongotest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ory/dockertest"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hidal-go/docload/source"
	"github.com/hidal-go/docload/source/mongo"
	"github.com/hidal-go/docload/source/sourcetest"
)

const vers = "4.4"

func init() {
	sourcetest.Register(mongo.Name, sourcetest.Version{
		Name: vers, Factory: MongoVersion(vers),
	})
}

// MongoVersion runs a MongoDB container of a given version for each test.
func MongoVersion(vers string) sourcetest.Database {
	return sourcetest.Database{
		LenientCollections: true,
		Run: func(t testing.TB) sourcetest.Fixture {
			pool, err := dockertest.NewPool("")
			if err != nil {
				t.Skip("docker is not available: ", err)
			}

			cont, err := pool.Run("mongo", vers, nil)
			if err != nil {
				t.Skip("cannot start mongo: ", err)
			}
			t.Cleanup(func() {
				_ = cont.Close()
			})

			ctx := context.Background()

			addr := fmt.Sprintf("mongodb://%s", cont.GetHostPort("27017/tcp"))
			err = pool.Retry(func() error {
				sess, err := gomongo.NewClient(options.Client().ApplyURI(addr))
				if err != nil {
					return err
				}
				if err = sess.Connect(ctx); err != nil {
					return err
				}
				defer sess.Disconnect(ctx)
				return sess.Ping(ctx, nil)
			})
			if err != nil {
				t.Fatal(err)
			}

			st, err := mongo.Dial(ctx, source.Config{URL: addr})
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() {
				_ = st.Close()
			})
			return sourcetest.Fixture{
				Store: st,
				Seed: func(ctx context.Context, col string, docs []map[string]interface{}) error {
					recs := make([]interface{}, 0, len(docs))
					for _, d := range docs {
						recs = append(recs, d)
					}
					_, err := st.Database().Collection(col).InsertMany(ctx, recs)
					return err
				},
				Equal: func(field, value string) string {
					data, _ := json.Marshal(map[string]interface{}{field: value})
					return string(data)
				},
			}
		},
	}
}
