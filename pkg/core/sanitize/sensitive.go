package sanitize

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// RedactedMarker replaces the content of any sensitive field.
const RedactedMarker = "[REDACTED]"

//go:embed patterns/sensitive.json
var defaultPatternsJSON []byte

// PatternSet is the versioned list of sensitivity patterns (case-insensitive regular expressions).
type PatternSet struct {
	Version       string   `json:"version"`
	FieldPatterns []string `json:"fieldPatterns"`
	FormPatterns  []string `json:"formPatterns"`
}

var (
	// SensitiveFieldPatterns are matched against field identifiers.
	SensitiveFieldPatterns []string
	// SensitiveFormPatterns are matched against the enclosing form name.
	SensitiveFormPatterns []string

	defaultFilter *Filter
)

func init() {
	set, err := ParsePatternSet(defaultPatternsJSON)
	if err != nil {
		panic(fmt.Sprintf("sanitize: embedded pattern set: %v", err))
	}
	SensitiveFieldPatterns = set.FieldPatterns
	SensitiveFormPatterns = set.FormPatterns
	defaultFilter, err = NewFilter(set)
	if err != nil {
		panic(fmt.Sprintf("sanitize: embedded pattern set: %v", err))
	}
}

// DefaultPatternSet returns the embedded pattern set.
func DefaultPatternSet() PatternSet {
	set, _ := ParsePatternSet(defaultPatternsJSON)
	return set
}

// ParsePatternSet decodes a pattern document.
func ParsePatternSet(data []byte) (PatternSet, error) {
	var set PatternSet
	if err := json.Unmarshal(data, &set); err != nil {
		return PatternSet{}, fmt.Errorf("decode pattern set: %w", err)
	}
	if set.Version == "" {
		return PatternSet{}, fmt.Errorf("pattern set has no version")
	}
	return set, nil
}

// LoadPatternSet reads a pattern document from disk.
func LoadPatternSet(path string) (PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PatternSet{}, fmt.Errorf("read pattern set: %w", err)
	}
	return ParsePatternSet(data)
}

// Filter classifies field and form identifiers as sensitive.
type Filter struct {
	version string
	fields  []*regexp.Regexp
	forms   []*regexp.Regexp
}

// NewFilter compiles a pattern set.
func NewFilter(set PatternSet) (*Filter, error) {
	fields, err := compileAll(set.FieldPatterns)
	if err != nil {
		return nil, err
	}
	forms, err := compileAll(set.FormPatterns)
	if err != nil {
		return nil, err
	}
	return &Filter{version: set.Version, fields: fields, forms: forms}, nil
}

// DefaultFilter returns the filter built from the embedded pattern set.
func DefaultFilter() *Filter {
	return defaultFilter
}

// Version identifies the pattern set the filter was built from.
func (f *Filter) Version() string {
	return f.version
}

// IsSensitiveField reports whether fieldID matches a field pattern, or a form pattern
// (field ids often carry their form's name, e.g. "login-form-user").
func (f *Filter) IsSensitiveField(fieldID string) bool {
	id := strings.ToLower(strings.TrimSpace(fieldID))
	if id == "" {
		return false
	}
	return matchAny(f.fields, id) || matchAny(f.forms, id)
}

// IsSensitiveInput reports whether a field, or the form it belongs to, is sensitive.
func (f *Filter) IsSensitiveInput(fieldID, formName string) bool {
	if f.IsSensitiveField(fieldID) {
		return true
	}
	form := strings.ToLower(strings.TrimSpace(formName))
	return form != "" && (matchAny(f.forms, form) || matchAny(f.fields, form))
}

// IsSensitiveField checks fieldID against the embedded pattern set.
func IsSensitiveField(fieldID string) bool {
	return defaultFilter.IsSensitiveField(fieldID)
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
