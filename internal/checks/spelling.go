package checks

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/scoring"
)

// contextRadius is the number of tokens kept on each side of a misspelling.
const contextRadius = 5

// builtinMisspellings is always present; dictionary files can only add.
var builtinMisspellings = map[string][]string{
	"teh":        {"the"},
	"recieve":    {"receive"},
	"occured":    {"occurred"},
	"seperate":   {"separate"},
	"definately": {"definitely"},
	"accomodate": {"accommodate"},
	"acheive":    {"achieve"},
	"calender":   {"calendar"},
	"collegue":   {"colleague"},
	"concious":   {"conscious"},
}

// Dictionary maps a lower-case misspelling to its suggestions.
type Dictionary map[string][]string

// DefaultDictionary returns a copy of the built-in table.
func DefaultDictionary() Dictionary {
	d := make(Dictionary, len(builtinMisspellings))
	for k, v := range builtinMisspellings {
		d[k] = append([]string(nil), v...)
	}
	return d
}

type dictionaryFile struct {
	Misspellings map[string][]string `yaml:"misspellings"`
}

// LoadDictionary returns the built-in table extended with the entries of a
// YAML file of the form
//
//	misspellings:
//	  wierd: [weird]
//
// Built-in entries cannot be removed or overridden. An empty path yields the
// built-in table.
func LoadDictionary(path string) (Dictionary, error) {
	d := DefaultDictionary()
	if path == "" {
		return d, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var f dictionaryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}
	for word, suggestions := range f.Misspellings {
		w := strings.ToLower(strings.TrimSpace(word))
		if w == "" || len(suggestions) == 0 {
			continue
		}
		if _, builtin := builtinMisspellings[w]; builtin {
			continue
		}
		d[w] = append([]string(nil), suggestions...)
	}
	return d, nil
}

// Words returns the dictionary keys, sorted.
func (d Dictionary) Words() []string {
	out := make([]string, 0, len(d))
	for w := range d {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// SpellingCheck flags tokens found in a closed misspelling table.
type SpellingCheck struct {
	dict Dictionary
}

func NewSpellingCheck(dict Dictionary) *SpellingCheck {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &SpellingCheck{dict: dict}
}

func (s *SpellingCheck) Name() model.CheckName { return model.CheckSpelling }

func (s *SpellingCheck) Run(ctx context.Context, content *model.Content) (*model.CheckResult, error) {
	if content == nil {
		return nil, fmt.Errorf("nil content")
	}
	tokens := strings.Fields(strings.ToLower(content.Text))
	issues := []model.Issue{}

	for i, tok := range tokens {
		if i%512 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		word := stripPunct(tok)
		suggestions, ok := s.dict[word]
		if !ok {
			continue
		}
		lo := max(0, i-contextRadius)
		hi := min(len(tokens), i+contextRadius+1)
		snippet := strings.Join(tokens[lo:hi], " ")

		issues = append(issues, model.Issue{
			Kind:         model.IssueSpellingError,
			Severity:     model.SeverityWarning,
			Description:  fmt.Sprintf("Possible misspelling: %q", word),
			SuggestedFix: "Did you mean: " + strings.Join(suggestions, ", "),
			Metadata: map[string]any{
				"word":        word,
				"suggestions": append([]string(nil), suggestions...),
				"context":     snippet,
			},
		})
	}

	return &model.CheckResult{
		Check:  model.CheckSpelling,
		Issues: issues,
		Score:  scoring.Spelling(len(issues)),
	}, nil
}

func stripPunct(tok string) string {
	return strings.TrimFunc(tok, unicode.IsPunct)
}
