package railref

import (
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/railstats/admin-console/pkg/errors"
	"github.com/railstats/admin-console/pkg/jsonform"
)

func TestStationInputIsNormalized(t *testing.T) {
	is := is.New(t)

	lat, lon := 53.7949, -1.5479
	s, err := StationInput{StationName: " Leeds ", CrsCode: "lds", Latitude: &lat, Longitude: &lon}.ToStation()
	is.NoErr(err)

	is.Equal(s.StationName, "Leeds")
	is.Equal(s.CrsCode, "LDS")
	is.Equal(s.StnCrsID, "LDS")
	is.Equal(*s.Location, GeoPoint{Latitude: lat, Longitude: lon})
}

func TestStationWithOnlyOneCoordinateHasNoLocation(t *testing.T) {
	is := is.New(t)

	lat := 51.5
	s, err := StationInput{StationName: "Euston", CrsCode: "EUS", Latitude: &lat}.ToStation()
	is.NoErr(err)
	is.True(s.Location == nil)
}

func TestStationValidation(t *testing.T) {
	is := is.New(t)

	badLat, badLon := 91.0, -180.5

	cases := []StationInput{
		{StationName: "", CrsCode: "LDS"},
		{StationName: "Leeds", CrsCode: ""},
		{StationName: "Leeds", CrsCode: "LEED"},
		{StationName: "Leeds", CrsCode: "LD"},
		{StationName: "Leeds", CrsCode: "LDS", Latitude: &badLat},
		{StationName: "Leeds", CrsCode: "LDS", Longitude: &badLon},
	}

	for _, c := range cases {
		_, err := c.ToStation()
		is.True(errors.Is(err, errors.ErrBadRequest))
	}
}

func TestOperatorNormalization(t *testing.T) {
	is := is.New(t)

	o, err := Operator{Name: "Northern", OperatorRegion: "North", ColorHex: "#ab12cd"}.Normalized()
	is.NoErr(err)
	is.Equal(o.OperatorType, DefaultOperatorType)
	is.Equal(o.ColorHex, "#AB12CD")
}

func TestOperatorValidation(t *testing.T) {
	is := is.New(t)

	for _, o := range []Operator{
		{Name: "", OperatorRegion: "North"},
		{Name: "Northern", OperatorRegion: " "},
		{Name: "Northern", OperatorRegion: "North", ColorHex: "red"},
		{Name: "Northern", OperatorRegion: "North", ColorHex: "#12345"},
		{Name: "Northern", OperatorRegion: "North", ColorHex: "#GGGGGG"},
	} {
		_, err := o.Normalized()
		is.True(errors.Is(err, errors.ErrBadRequest))
	}
}

func TestRRTFileName(t *testing.T) {
	is := is.New(t)

	is.Equal(RRTFileName("Freedom of Wales  Flexi Pass"), "freedom-of-wales-flexi-pass.json")
	is.Equal(RRTFileName("Devon\tDay Ranger"), "devon-day-ranger.json")
}

func TestRRTFormDocument(t *testing.T) {
	is := is.New(t)

	now := time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC)

	doc, err := RRTForm{Name: " Cambrian Coast Day Ranger ", Area: "Wales", Price: ""}.Document(now)
	is.NoErr(err)

	is.Equal(string(jsonform.Marshal(doc)),
		`{"name":"Cambrian Coast Day Ranger","area":"Wales","code":null,"price":null,"validity":null,`+
			`"description":null,"restrictions":null,"notes":null,`+
			`"updatedAt":"2025-03-14T09:26:53.589Z","createdAt":"2025-03-14T09:26:53.589Z"}`)

	_, err = RRTForm{Name: "  "}.Document(now)
	is.True(errors.Is(err, errors.ErrBadRequest))
}

func TestRRTMatches(t *testing.T) {
	is := is.New(t)

	data, err := jsonform.Parse([]byte(`{"name":"Heart of Wales Rover","area":"Mid Wales","code":"HWR","price":42}`))
	is.NoErr(err)

	r := RRT{Name: "heart-of-wales.json", Data: &data}

	is.True(r.Matches("rover"))
	is.True(r.Matches("MID"))
	is.True(r.Matches("hwr"))
	is.True(r.Matches("heart-of"))
	is.True(r.Matches(""))
	is.True(!r.Matches("42"))
}

func TestBlobNameFilters(t *testing.T) {
	is := is.New(t)

	is.True(IsImage("wales.PNG"))
	is.True(IsImage("a.webp"))
	is.True(!IsImage("a.svg"))

	is.True(IsRootRRTCandidate("devon.json"))
	is.True(!IsRootRRTCandidate("firebase-export.json"))
	is.True(!IsRootRRTCandidate("config.json"))
	is.True(!IsRootRRTCandidate("devon.txt"))
}
