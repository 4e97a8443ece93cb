package railref

import (
	"regexp"
	"strings"
)

const DefaultOperatorType string = "Rail Operator"

var colorHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Operator struct {
	Name           string `json:"name"`
	OperatorType   string `json:"operatortype"`
	OperatorRegion string `json:"operatorregion"`
	ColorHex       string `json:"colorHex,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

func (o Operator) Validate() error {
	problems := []string{}

	if strings.TrimSpace(o.Name) == "" {
		problems = append(problems, "operator name is required")
	}

	if strings.TrimSpace(o.OperatorRegion) == "" {
		problems = append(problems, "operating region is required")
	}

	color := strings.TrimSpace(o.ColorHex)
	if color != "" && !colorHexPattern.MatchString(color) {
		problems = append(problems, "color must be in hex format (e.g., #FF0000)")
	}

	return validationError(problems)
}

// Normalized validates the operator and returns it trimmed, with defaults
// applied and the colour upper cased.
func (o Operator) Normalized() (Operator, error) {
	if err := o.Validate(); err != nil {
		return Operator{}, err
	}

	n := Operator{
		Name:           strings.TrimSpace(o.Name),
		OperatorType:   strings.TrimSpace(o.OperatorType),
		OperatorRegion: strings.TrimSpace(o.OperatorRegion),
		ColorHex:       strings.ToUpper(strings.TrimSpace(o.ColorHex)),
		UpdatedAt:      o.UpdatedAt,
	}

	if n.OperatorType == "" {
		n.OperatorType = DefaultOperatorType
	}

	return n, nil
}
