package railref

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/railstats/admin-console/pkg/errors"
	"github.com/railstats/admin-console/pkg/jsonform"
)

const (
	RRTFolder   string = "RRT-JSONS"
	ImageFolder string = "RRT-Area-IMGS"
)

var whitespace = regexp.MustCompile(`\s+`)

// RRT is a listing entry of a stored Ranger Rover Travelcard document
type RRT struct {
	Name      string          `json:"name"`
	Path      string          `json:"path"`
	Size      int64           `json:"size"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      *jsonform.Value `json:"data"`
}

// RRTForm holds the fields of the simple RRT form. Empty optional fields
// are stored as null.
type RRTForm struct {
	Name         string `json:"name"`
	Area         string `json:"area"`
	Code         string `json:"code"`
	Price        string `json:"price"`
	Validity     string `json:"validity"`
	Description  string `json:"description"`
	Restrictions string `json:"restrictions"`
	Notes        string `json:"notes"`
}

// RRTFileName derives the blob name of a new RRT from its display name
func RRTFileName(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(name), "-") + ".json"
}

// Document builds the JSON document of a newly created RRT
func (f RRTForm) Document(now time.Time) (jsonform.Value, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return jsonform.Value{}, errors.NewBadRequestError("RRT name is required")
	}

	optional := func(s string) jsonform.Value {
		s = strings.TrimSpace(s)
		if s == "" {
			return jsonform.NewNull()
		}
		return jsonform.NewString(s)
	}

	ts := jsonform.NewString(Timestamp(now))

	return jsonform.NewObject(
		jsonform.Member{Key: "name", Value: jsonform.NewString(name)},
		jsonform.Member{Key: "area", Value: optional(f.Area)},
		jsonform.Member{Key: "code", Value: optional(f.Code)},
		jsonform.Member{Key: "price", Value: optional(f.Price)},
		jsonform.Member{Key: "validity", Value: optional(f.Validity)},
		jsonform.Member{Key: "description", Value: optional(f.Description)},
		jsonform.Member{Key: "restrictions", Value: optional(f.Restrictions)},
		jsonform.Member{Key: "notes", Value: optional(f.Notes)},
		jsonform.Member{Key: "updatedAt", Value: ts},
		jsonform.Member{Key: "createdAt", Value: ts},
	), nil
}

// Matches reports whether the term is found, ignoring case, in the name,
// area or code of the document or in its file name.
func (r RRT) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}

	candidates := []string{r.Name}

	if r.Data != nil && r.Data.Kind() == jsonform.ObjectKind {
		for _, key := range []string{"name", "area", "code"} {
			if v, ok := r.Data.Object().Get(key); ok && v.Kind() == jsonform.StringKind {
				candidates = append(candidates, v.Str())
			}
		}
	}

	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), term) {
			return true
		}
	}

	return false
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// IsImage reports whether a blob name has one of the accepted image extensions
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// IsRootRRTCandidate reports whether a blob at the root of the store could
// be an RRT document rather than configuration.
func IsRootRRTCandidate(name string) bool {
	return strings.HasSuffix(name, ".json") &&
		!strings.Contains(name, "firebase") &&
		!strings.Contains(name, "config")
}
