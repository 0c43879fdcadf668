package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hidal-go/docload/document"
	couchtest "github.com/hidal-go/docload/source/couch/test"
)

func run(t *testing.T, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decode(t *testing.T, out string) []document.Document {
	var docs []document.Document
	sc := bufio.NewScanner(bytes.NewBufferString(out))
	for sc.Scan() {
		var d document.Document
		require.NoError(t, json.Unmarshal(sc.Bytes(), &d))
		docs = append(docs, d)
	}
	require.NoError(t, sc.Err())
	return docs
}

func TestLoadCommand(t *testing.T) {
	srv := couchtest.NewServer(t)
	srv.Handle(http.MethodGet, "/orders/_all_docs", `{"total_rows":1,"offset":0,"rows":[
		{"id":"1","key":"1","value":{"rev":"1-a"},"doc":{"amount":5}}
	]}`)

	out, errOut, err := run(t, "load", "orders", "--url", srv.URL, "--user", "admin", "-v")
	require.NoError(t, err)
	docs := decode(t, out)
	require.Len(t, docs, 1)
	require.Equal(t, `{"amount": 5}`, docs[0].Text)
	require.Equal(t, "admin", docs[0].ExtraInfo.User)
	require.Nil(t, docs[0].ExtraInfo.Query)
	require.Contains(t, errOut, "showing all docs")
}

func TestLoadCommandQuery(t *testing.T) {
	srv := couchtest.NewServer(t)
	srv.Handle(http.MethodPost, "/orders/_find", `{"docs":[{"_id":"a","v":1}]}`)

	out, _, err := run(t, "load", "orders", "--url", srv.URL, "--query", `{"v":1}`)
	require.NoError(t, err)
	docs := decode(t, out)
	require.Len(t, docs, 1)
	require.Equal(t, "a", docs[0].ID)
	require.NotNil(t, docs[0].ExtraInfo.Query)
	require.Equal(t, `{"v":1}`, *docs[0].ExtraInfo.Query)
}

func TestLoadCommandConfigFile(t *testing.T) {
	srv := couchtest.NewServer(t)
	srv.Handle(http.MethodGet, "/orders/_all_docs", `{"total_rows":0,"offset":0,"rows":[]}`)

	path := filepath.Join(t.TempDir(), "couchload.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: "+srv.URL+"\nmax_docs: 10\n"), 0o600))

	out, _, err := run(t, "load", "orders", "--config", path)
	require.NoError(t, err)
	require.Empty(t, out)
	require.Len(t, srv.Requests(), 1)
}

func TestLoadCommandErrors(t *testing.T) {
	srv := couchtest.NewServer(t)

	_, _, err := run(t, "load", "nope", "--url", srv.URL)
	require.Error(t, err)

	_, _, err = run(t, "load", "orders", "--driver", "nosuch", "--url", srv.URL)
	require.Error(t, err)

	_, _, err = run(t, "load")
	require.Error(t, err)
}

func TestDriversCommand(t *testing.T) {
	out, _, err := run(t, "drivers")
	require.NoError(t, err)
	require.Contains(t, out, "couch\tCouchDB")
	require.Contains(t, out, "mongo\tMongoDB")
}
