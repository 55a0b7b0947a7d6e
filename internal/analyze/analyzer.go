// Package analyze turns raw text into a controversy classification using a
// fixed lexicon. Results depend only on the input text and the lexicon.
package analyze

import (
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/polemica/internal/model"
)

// Score weights and bounds
const (
	comparativeScale = 2.0
	comparativeLimit = 5.0
	intensityCap     = 5.0

	weightSentiment = 0.4
	weightContext   = 0.3
	weightIntensity = 0.3

	// Below this severity score no controversy type is reported
	typeFloor = 1.0
)

// Analyzer classifies text. It is read-only after construction and safe for
// concurrent use.
type Analyzer struct {
	lex *Lexicon

	sentimentNegators map[string]bool
	windowIntensify   map[string]bool
	windowNegate      map[string]bool

	categories []compiledCategory
	intensity  []*regexp.Regexp
	keywords   []keywordMatcher
}

type compiledCategory struct {
	name     model.Category
	weight   float64
	patterns []string
	anyHit   *regexp.Regexp
}

type keywordMatcher struct {
	term string
	re   *regexp.Regexp
}

// New creates an analyzer backed by the built-in lexicon
func New() (*Analyzer, error) {
	lex, err := DefaultLexicon()
	if err != nil {
		return nil, err
	}
	return NewWithLexicon(lex), nil
}

// NewWithLexicon creates an analyzer for a custom lexicon
func NewWithLexicon(lex *Lexicon) *Analyzer {
	a := &Analyzer{
		lex:               lex,
		sentimentNegators: toSet(lex.SentimentNegators),
		windowIntensify:   toSet(lex.Window.Intensifiers),
		windowNegate:      toSet(lex.Window.Negators),
	}

	for _, c := range lex.Categories {
		cc := compiledCategory{name: c.Name, weight: c.Weight}
		quoted := make([]string, 0, len(c.Patterns))
		for _, p := range c.Patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			cc.patterns = append(cc.patterns, p)
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
		if len(quoted) > 0 {
			cc.anyHit = regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
		}
		a.categories = append(a.categories, cc)
	}

	for _, w := range lex.Intensity.Words {
		a.intensity = append(a.intensity, wholeWord(w))
	}
	for _, term := range lex.ControversyTerms {
		a.keywords = append(a.keywords, keywordMatcher{term: term, re: wholeWord(term)})
	}

	return a
}

// Analyze classifies a single text
func (a *Analyzer) Analyze(text string) model.Analysis {
	tokens := tokenize(text)

	sentiment := a.sentiment(tokens)
	contextScores := a.contextScores(tokens, text)
	intensity := a.intensityScore(text, sentiment.Comparative)

	maxCategory, maxScore := dominant(contextScores)
	severityScore := weightSentiment*math.Abs(sentiment.Comparative) +
		weightContext*maxScore +
		weightIntensity*intensity

	controversyType := model.ControversyNone
	if severityScore >= typeFloor {
		controversyType = model.ControversyTypeFor(maxCategory)
	}

	return model.Analysis{
		Sentiment:       sentiment,
		ContextScores:   contextScores,
		Severity:        model.SeverityFromScore(severityScore),
		SeverityScore:   severityScore,
		ControversyType: controversyType,
		IntensityScore:  intensity,
		MatchedKeywords: a.matchedKeywords(text),
	}
}

// sentiment sums lexicon values and normalizes by token count
func (a *Analyzer) sentiment(tokens []string) model.Sentiment {
	var s model.Sentiment
	for i, tok := range tokens {
		v, ok := a.lex.Sentiment[tok]
		if !ok {
			continue
		}
		if i > 0 && a.sentimentNegators[tokens[i-1]] {
			v = -v
		}
		switch {
		case v > 0:
			s.Positive = append(s.Positive, tok)
		case v < 0:
			s.Negative = append(s.Negative, tok)
		}
		s.Score += v
	}

	if len(tokens) > 0 {
		s.Comparative = clamp(s.Score/float64(len(tokens))*comparativeScale, -comparativeLimit, comparativeLimit)
	}
	return s
}

// contextScores rates every category. A category only scores when the raw
// text contains one of its patterns; the score itself comes from the token
// windows around each hit.
func (a *Analyzer) contextScores(tokens []string, text string) map[model.Category]float64 {
	scores := make(map[model.Category]float64, len(a.categories))
	for _, c := range a.categories {
		score := 0.0
		if c.anyHit != nil && c.anyHit.MatchString(text) {
			score = a.windowScore(tokens, c.patterns) * c.weight
		}
		scores[c.name] = score
	}
	return scores
}

func (a *Analyzer) windowScore(tokens []string, patterns []string) float64 {
	size := a.lex.Window.Size
	total := 0.0

	for i, tok := range tokens {
		if !containsAny(tok, patterns) {
			continue
		}

		start := max(0, i-size)
		end := min(len(tokens)-1, i+size)

		score := 1.0
		for _, w := range tokens[start : end+1] {
			if a.windowIntensify[w] {
				score += a.lex.Window.IntensifierBonus
			}
			if a.windowNegate[w] {
				score += a.lex.Window.NegatorPenalty
			}
		}
		total += score
	}
	return total
}

func (a *Analyzer) intensityScore(text string, comparative float64) float64 {
	hits := 0
	for _, re := range a.intensity {
		hits += len(re.FindAllStringIndex(text, -1))
	}
	return math.Min(intensityCap, math.Abs(comparative)+float64(hits)*a.lex.Intensity.Bonus)
}

func (a *Analyzer) matchedKeywords(text string) []string {
	matched := []string{}
	for _, k := range a.keywords {
		if k.re.MatchString(text) {
			matched = append(matched, k.term)
		}
	}
	return matched
}

// dominant returns the highest-scoring category. Only a strictly greater
// score displaces the current leader, so ties keep the earlier category and
// an all-zero map yields no category.
func dominant(scores map[model.Category]float64) (model.Category, float64) {
	var best model.Category
	bestScore := 0.0
	for _, c := range model.Categories {
		if s := scores[c]; s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore
}

func containsAny(token string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(token, p) {
			return true
		}
	}
	return false
}

func wholeWord(w string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(w)) + `\b`)
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
