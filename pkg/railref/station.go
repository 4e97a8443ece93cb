package railref

import (
	"strings"
	"time"

	"github.com/railstats/admin-console/pkg/errors"
)

const (
	StationsCollection  string = "stations"
	OperatorsCollection string = "toc_operators"
)

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Station struct {
	StationName      string           `json:"stationName"`
	StationNameAlt   string           `json:"stationNameAlt,omitempty"`
	CrsCode          string           `json:"crsCode"`
	StnCrsID         string           `json:"stnCrsId,omitempty"`
	Country          string           `json:"country,omitempty"`
	County           string           `json:"county,omitempty"`
	Tiploc           string           `json:"tiploc,omitempty"`
	Toc              string           `json:"toc,omitempty"`
	Source           string           `json:"source,omitempty"`
	YearlyPassengers map[string]int64 `json:"yearlyPassengers,omitempty"`
	Location         *GeoPoint        `json:"location"`
	UploadedAt       string           `json:"uploadedAt,omitempty"`
	UpdatedAt        string           `json:"updatedAt,omitempty"`
}

// StationInput is what an administrator submits when adding or editing a
// station. Coordinates are only stored when both are present.
type StationInput struct {
	StationName      string           `json:"stationName"`
	StationNameAlt   string           `json:"stationNameAlt"`
	CrsCode          string           `json:"crsCode"`
	StnCrsID         string           `json:"stnCrsId"`
	Country          string           `json:"country"`
	County           string           `json:"county"`
	Tiploc           string           `json:"tiploc"`
	Toc              string           `json:"toc"`
	Source           string           `json:"source"`
	YearlyPassengers map[string]int64 `json:"yearlyPassengers"`
	Latitude         *float64         `json:"latitude"`
	Longitude        *float64         `json:"longitude"`
}

func (in StationInput) Validate() error {
	problems := []string{}

	if strings.TrimSpace(in.StationName) == "" {
		problems = append(problems, "station name is required")
	}

	crs := strings.TrimSpace(in.CrsCode)
	if crs == "" {
		problems = append(problems, "CRS code is required")
	} else if len([]rune(crs)) != 3 {
		problems = append(problems, "CRS code must be exactly 3 characters")
	}

	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		problems = append(problems, "latitude must be a number between -90 and 90")
	}

	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		problems = append(problems, "longitude must be a number between -180 and 180")
	}

	return validationError(problems)
}

// ToStation validates the input and returns the station record it describes
func (in StationInput) ToStation() (Station, error) {
	if err := in.Validate(); err != nil {
		return Station{}, err
	}

	crs := NormalizeCRS(in.CrsCode)

	s := Station{
		StationName:      strings.TrimSpace(in.StationName),
		StationNameAlt:   strings.TrimSpace(in.StationNameAlt),
		CrsCode:          crs,
		StnCrsID:         strings.TrimSpace(in.StnCrsID),
		Country:          strings.TrimSpace(in.Country),
		County:           strings.TrimSpace(in.County),
		Tiploc:           strings.TrimSpace(in.Tiploc),
		Toc:              strings.TrimSpace(in.Toc),
		Source:           strings.TrimSpace(in.Source),
		YearlyPassengers: in.YearlyPassengers,
	}

	if s.StnCrsID == "" {
		s.StnCrsID = crs
	}

	if in.Latitude != nil && in.Longitude != nil {
		s.Location = &GeoPoint{Latitude: *in.Latitude, Longitude: *in.Longitude}
	}

	return s, nil
}

// NormalizeCRS returns the form CRS codes are stored and queried in
func NormalizeCRS(crs string) string {
	return strings.ToUpper(strings.TrimSpace(crs))
}

// Timestamp formats t the way record timestamps are stored, as an ISO 8601
// string in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func validationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return errors.NewBadRequestError(strings.Join(problems, ", "))
}
