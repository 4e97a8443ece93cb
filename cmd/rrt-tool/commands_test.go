package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
)

func TestFlattenPrintsDottedPaths(t *testing.T) {
	is, g, out := setupCommandTest(t, `{"name": "Devon", "area": {"code": "SW", "zones": []}}`)

	is.NoErr((&FlattenCmd{}).Run(g))
	is.Equal(out.String(), "{\n  \"name\": \"Devon\",\n  \"area.code\": \"SW\",\n  \"area.zones\": []\n}\n")
}

func TestFlattenWithRenderKinds(t *testing.T) {
	is, g, out := setupCommandTest(t, `{"name": "Devon", "price": 12, "stations": ["EXD", "PLY"]}`)

	is.NoErr((&FlattenCmd{Render: true}).Run(g))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(lines), 3)
	is.Equal(lines[1], "price\tnumber\t12")
	is.Equal(lines[2], "stations\tarray\tEXD\\nPLY")
}

func TestFlattenRejectsTopLevelArray(t *testing.T) {
	is, g, _ := setupCommandTest(t, `[1, 2]`)

	err := (&FlattenCmd{}).Run(g)
	is.True(err != nil)
}

func TestUnflattenRebuildsNestedDocument(t *testing.T) {
	is, g, out := setupCommandTest(t, `{"name": "Devon", "area.code": "SW", "area.region": "South West"}`)

	is.NoErr((&UnflattenCmd{}).Run(g))
	is.Equal(out.String(), "{\n  \"name\": \"Devon\",\n  \"area\": {\n    \"code\": \"SW\",\n    \"region\": \"South West\"\n  }\n}\n")
}

func TestImportUploadsValidDocuments(t *testing.T) {
	is, g, out := setupCommandTest(t, "")

	dir := t.TempDir()
	is.NoErr(os.WriteFile(filepath.Join(dir, "devon.json"), []byte(`{"name":"Devon"}`), 0644))
	is.NoErr(os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name":`), 0644))
	is.NoErr(os.WriteFile(filepath.Join(dir, "firebase-config.json"), []byte(`{}`), 0644))
	is.NoErr(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`hello`), 0644))

	store := blobs.NewMemoryStore()
	g.openStore = func(ctx context.Context) (blobs.Store, func(), error) {
		return store, func() {}, nil
	}

	is.NoErr((&ImportCmd{Dir: dir}).Run(g))
	is.Equal(out.String(), "1 imported, 1 skipped\n")

	data, err := store.Get(g.Ctx, "RRT-JSONS/devon.json")
	is.NoErr(err)
	is.Equal(string(data), "{\n  \"name\": \"Devon\"\n}")
}

func TestImportDryRunDoesNotOpenStore(t *testing.T) {
	is, g, out := setupCommandTest(t, "")

	dir := t.TempDir()
	is.NoErr(os.WriteFile(filepath.Join(dir, "devon.json"), []byte(`{"name":"Devon"}`), 0644))

	is.NoErr((&ImportCmd{Dir: dir, DryRun: true}).Run(g))
	is.Equal(out.String(), "1 imported, 0 skipped\n")
}

func setupCommandTest(t *testing.T, input string) (*is.I, *Globals, *bytes.Buffer) {
	out := &bytes.Buffer{}

	g := &Globals{
		Ctx: context.Background(),
		In:  strings.NewReader(input),
		Out: out,
		openStore: func(ctx context.Context) (blobs.Store, func(), error) {
			t.Fatal("store should not be opened")
			return nil, nil, nil
		},
	}

	return is.New(t), g, out
}
