package blobs

import (
	"context"
	"testing"

	"github.com/matryer/is"
	"github.com/railstats/admin-console/pkg/errors"
)

func TestPutAndGet(t *testing.T) {
	is, ctx, store := setupStoreTest(t)

	err := store.Put(ctx, "RRT-JSONS/freedom-pass.json", []byte(`{"name":"Freedom Pass"}`), "application/json")
	is.NoErr(err)

	data, err := store.Get(ctx, "RRT-JSONS/freedom-pass.json")
	is.NoErr(err)
	is.Equal(string(data), `{"name":"Freedom Pass"}`)
}

func TestGetOfMissingBlobIsNotFound(t *testing.T) {
	is, ctx, store := setupStoreTest(t)

	_, err := store.Get(ctx, "RRT-JSONS/missing.json")
	is.True(errors.Is(err, errors.ErrNotFound))
}

func TestPutReplacesWholeBlob(t *testing.T) {
	is, ctx, store := setupStoreTest(t)

	is.NoErr(store.Put(ctx, "a.json", []byte(`{"a": 1, "b": 2}`), "application/json"))
	is.NoErr(store.Put(ctx, "a.json", []byte(`{}`), "application/json"))

	data, err := store.Get(ctx, "a.json")
	is.NoErr(err)
	is.Equal(string(data), `{}`)
}

func TestListOnlyReturnsDirectChildren(t *testing.T) {
	is, ctx, store := setupStoreTest(t)

	for _, p := range []string{"index.json", "RRT-JSONS/a.json", "RRT-JSONS/b.json", "RRT-JSONS/old/c.json", "RRT-Area-IMGS/a.png"} {
		is.NoErr(store.Put(ctx, p, []byte("x"), "application/octet-stream"))
	}

	infos, err := store.List(ctx, "RRT-JSONS")
	is.NoErr(err)
	is.Equal(len(infos), 2)
	is.Equal(infos[0].Name, "a.json")
	is.Equal(infos[0].Path, "RRT-JSONS/a.json")
	is.Equal(infos[1].Name, "b.json")
	is.Equal(infos[1].Size, int64(1))

	root, err := store.List(ctx, "")
	is.NoErr(err)
	is.Equal(len(root), 1)
	is.Equal(root[0].Path, "index.json")
}

func TestDelete(t *testing.T) {
	is, ctx, store := setupStoreTest(t)

	is.NoErr(store.Put(ctx, "RRT-Area-IMGS/wales.png", []byte{1, 2, 3}, "image/png"))
	is.NoErr(store.Delete(ctx, "RRT-Area-IMGS/wales.png"))

	err := store.Delete(ctx, "RRT-Area-IMGS/wales.png")
	is.True(errors.Is(err, errors.ErrNotFound))
}

func TestJoin(t *testing.T) {
	is := is.New(t)

	is.Equal(Join("RRT-JSONS", "a.json"), "RRT-JSONS/a.json")
	is.Equal(Join("RRT-JSONS/", "a.json"), "RRT-JSONS/a.json")
	is.Equal(Join("", "a.json"), "a.json")
}

func setupStoreTest(t *testing.T) (*is.I, context.Context, Store) {
	return is.New(t), context.Background(), NewMemoryStore()
}
