package documents

import (
	"context"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/railstats/admin-console/pkg/errors"
)

func TestAddAndGet(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)

	id, err := store.Add(ctx, "stations", map[string]any{"stationName": "Leeds", "crsCode": "LDS"})
	is.NoErr(err)
	is.True(id != "")

	doc, err := store.Get(ctx, "stations", id)
	is.NoErr(err)
	is.Equal(doc.ID, id)
	is.Equal(doc.Data["crsCode"], "LDS")
}

func TestGetReturnsACopy(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)

	id, _ := store.Add(ctx, "stations", map[string]any{"stationName": "Leeds"})

	doc, _ := store.Get(ctx, "stations", id)
	doc.Data["stationName"] = "York"

	again, _ := store.Get(ctx, "stations", id)
	is.Equal(again.Data["stationName"], "Leeds")
}

func TestUpdateMergesFields(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)

	is.NoErr(store.Set(ctx, "toc_operators", "gwr", map[string]any{"name": "GWR", "operatorregion": "West"}))
	is.NoErr(store.Update(ctx, "toc_operators", "gwr", map[string]any{"colorHex": "#0A493E", "operatorregion": nil}))

	doc, err := store.Get(ctx, "toc_operators", "gwr")
	is.NoErr(err)
	is.Equal(doc.Data["name"], "GWR")
	is.Equal(doc.Data["colorHex"], "#0A493E")

	v, ok := doc.Data["operatorregion"]
	is.True(ok)
	is.Equal(v, nil)
}

func TestUpdateOfMissingDocumentIsNotFound(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)

	err := store.Update(ctx, "toc_operators", "nope", map[string]any{"name": "x"})
	is.True(errors.Is(err, errors.ErrNotFound))
}

func TestDelete(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)

	id, _ := store.Add(ctx, "stations", map[string]any{"stationName": "Leeds"})
	is.NoErr(store.Delete(ctx, "stations", id))

	_, err := store.Get(ctx, "stations", id)
	is.True(errors.Is(err, errors.ErrNotFound))

	count, err := store.Count(ctx, "stations")
	is.NoErr(err)
	is.Equal(count, 0)
}

func TestQueryWithEqualityFilter(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)
	seedStations(t, ctx, store)

	docs, err := store.Query(ctx, "stations", Where("crsCode", "YRK"))
	is.NoErr(err)
	is.Equal(len(docs), 1)
	is.Equal(docs[0].Data["stationName"], "York")
}

func TestQueryFilterOnNumbersIgnoresGoType(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)

	is.NoErr(store.Set(ctx, "stations", "a", map[string]any{"platforms": 4}))

	docs, err := store.Query(ctx, "stations", Where("platforms", 4))
	is.NoErr(err)
	is.Equal(len(docs), 1)
}

func TestQueryOrderByExcludesDocumentsWithoutTheField(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)
	seedStations(t, ctx, store)
	is.NoErr(store.Set(ctx, "stations", "nameless", map[string]any{"crsCode": "XXX"}))

	docs, err := store.Query(ctx, "stations", Query{OrderBy: "stationName"})
	is.NoErr(err)
	is.Equal(names(docs), "Bath Spa,Crewe,Derby,Leeds,York")

	docs, err = store.Query(ctx, "stations", Query{OrderBy: "stationName", Descending: true, Limit: 2})
	is.NoErr(err)
	is.Equal(names(docs), "York,Leeds")
}

func TestCursorPaginationReturnsConsecutivePages(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)
	seedStations(t, ctx, store)

	q := Query{OrderBy: "stationName", Limit: 2}

	first, err := store.Query(ctx, "stations", q)
	is.NoErr(err)
	is.Equal(names(first), "Bath Spa,Crewe")

	q.StartAfter = first[len(first)-1].ID
	second, err := store.Query(ctx, "stations", q)
	is.NoErr(err)
	is.Equal(names(second), "Derby,Leeds")

	q.StartAfter = second[len(second)-1].ID
	third, err := store.Query(ctx, "stations", q)
	is.NoErr(err)
	is.Equal(names(third), "York")
}

func TestUnknownCursorIsBadRequest(t *testing.T) {
	is, ctx, store := setupDocumentsTest(t)
	seedStations(t, ctx, store)

	_, err := store.Query(ctx, "stations", Query{OrderBy: "stationName", StartAfter: "missing"})
	is.True(errors.Is(err, errors.ErrBadRequest))
}

func TestDecodeIntoTypedRecord(t *testing.T) {
	is := is.New(t)

	type station struct {
		Name string `json:"stationName"`
		CRS  string `json:"crsCode"`
	}

	var s station
	err := Decode(Document{ID: "1", Data: map[string]any{"stationName": "Leeds", "crsCode": "LDS"}}, &s)
	is.NoErr(err)
	is.Equal(s.Name, "Leeds")
	is.Equal(s.CRS, "LDS")

	data, err := Encode(s)
	is.NoErr(err)
	is.Equal(data["crsCode"], "LDS")
}

func TestBuildQueryWithCursorAndOrder(t *testing.T) {
	is := is.New(t)

	sql, args, err := buildQuery("stations", Query{
		Where:      []Filter{{Field: "toc", Value: "GR"}},
		OrderBy:    "stationName",
		StartAfter: "abc",
		Limit:      20,
	})
	is.NoErr(err)
	is.Equal(len(args), 6)
	is.Equal(args[2], `"GR"`)
	is.True(strings.Contains(sql, "data->$2 = $3::jsonb"))
	is.True(strings.Contains(sql, "data ? $4"))
	is.True(strings.Contains(sql, "(data->$4, id) > (SELECT data->$4, id FROM documents WHERE collection=$1 AND id=$5)"))
	is.True(strings.HasSuffix(sql, "ORDER BY data->$4 ASC, id ASC LIMIT $6"))
}

func TestBuildQueryDescendingWithoutOrderField(t *testing.T) {
	is := is.New(t)

	sql, args, err := buildQuery("stations", Query{Descending: true, StartAfter: "abc"})
	is.NoErr(err)
	is.Equal(len(args), 2)
	is.True(strings.HasSuffix(sql, "WHERE collection=$1 AND id < $2 ORDER BY id DESC"))
}

func seedStations(t *testing.T, ctx context.Context, store Store) {
	for _, s := range [][2]string{{"York", "YRK"}, {"Leeds", "LDS"}, {"Bath Spa", "BTH"}, {"Derby", "DBY"}, {"Crewe", "CRE"}} {
		_, err := store.Add(ctx, "stations", map[string]any{"stationName": s[0], "crsCode": s[1]})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func names(docs []Document) string {
	n := []string{}
	for _, d := range docs {
		n = append(n, d.Data["stationName"].(string))
	}
	return strings.Join(n, ",")
}

func setupDocumentsTest(t *testing.T) (*is.I, context.Context, Store) {
	return is.New(t), context.Background(), NewMemoryStore()
}
