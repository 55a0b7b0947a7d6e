package analyze

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/polemica/internal/model"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Lexicon holds every word list the analyzer consults
type Lexicon struct {
	Sentiment         map[string]float64 `yaml:"sentiment"`
	SentimentNegators []string           `yaml:"sentiment_negators"`
	Categories        []CategoryPatterns `yaml:"categories"`
	Window            WindowRules        `yaml:"window"`
	Intensity         IntensityRules     `yaml:"intensity"`
	ControversyTerms  []string           `yaml:"controversy_terms"`
}

// CategoryPatterns is one context category
type CategoryPatterns struct {
	Name     model.Category `yaml:"name"`
	Weight   float64        `yaml:"weight"`
	Patterns []string       `yaml:"patterns"`
}

// WindowRules adjust a category hit by the words around it
type WindowRules struct {
	Size             int      `yaml:"size"`
	Intensifiers     []string `yaml:"intensifiers"`
	IntensifierBonus float64  `yaml:"intensifier_bonus"`
	Negators         []string `yaml:"negators"`
	NegatorPenalty   float64  `yaml:"negator_penalty"`
}

// IntensityRules count emphatic words anywhere in the text
type IntensityRules struct {
	Words []string `yaml:"words"`
	Bonus float64  `yaml:"bonus"`
}

// DefaultLexicon returns the built-in lexicon
func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(defaultLexicon)
}

// LoadLexicon reads a lexicon from a YAML file
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes and validates a YAML lexicon
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := lex.validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func (l *Lexicon) validate() error {
	if len(l.Sentiment) == 0 {
		return fmt.Errorf("lexicon: sentiment table is empty")
	}
	if l.Window.Size < 0 {
		return fmt.Errorf("lexicon: window size must not be negative")
	}

	seen := make(map[model.Category]bool)
	for _, c := range l.Categories {
		known := false
		for _, k := range model.Categories {
			if c.Name == k {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("lexicon: unknown category %q", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("lexicon: duplicate category %q", c.Name)
		}
		if c.Weight <= 0 {
			return fmt.Errorf("lexicon: category %q needs a positive weight", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
