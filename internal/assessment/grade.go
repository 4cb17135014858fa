package assessment

import (
	"fmt"
	"strings"
)

// Grade is the coarse health classification of a run. Only three letters are
// ever produced; the zero value is the worst grade.
type Grade int

const (
	GradeF Grade = iota
	GradeC
	GradeA
)

// ParseGrade parses "A", "C" or "F" (case-insensitive).
func ParseGrade(s string) (Grade, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return GradeA, nil
	case "C":
		return GradeC, nil
	case "F":
		return GradeF, nil
	default:
		return GradeF, fmt.Errorf("invalid grade %q (use A, C or F)", s)
	}
}

func (g Grade) String() string {
	switch g {
	case GradeA:
		return "A"
	case GradeC:
		return "C"
	case GradeF:
		return "F"
	default:
		return fmt.Sprintf("Grade(%d)", int(g))
	}
}

// AtLeast reports whether g is as good as or better than min.
func (g Grade) AtLeast(min Grade) bool {
	return g >= min
}

// MarshalText encodes the grade as its letter.
func (g Grade) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a grade letter.
func (g *Grade) UnmarshalText(text []byte) error {
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
