package token

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/sahilm/fuzzy"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Match is a vocabulary binding that ranked best for a query.
type Match struct {
	Token   string
	Binding Binding
	// Score is the Dice coefficient of matched words.
	Score float64
	// Matched is the number of vocabulary words found in the query.
	Matched int
}

// Matcher ranks vocabulary entries against free-text queries.
// It is safe for concurrent use.
type Matcher struct {
	metric         Metric
	minScore       float64
	wordSimilarity float64
}

// NewMatcher creates a [Matcher] from cfg. A nil cfg uses the defaults.
func NewMatcher(cfg *Config) *Matcher {
	if cfg == nil {
		cfg = NewConfig()
	}

	cfg.EnsureDefaults()

	return &Matcher{
		metric:         Metric(*cfg.WordMetric),
		minScore:       *cfg.MinScore,
		wordSimilarity: *cfg.WordSimilarity,
	}
}

// BestMatches returns every binding of the vocabulary entries that tie for
// the best score against query. Each query word can match at most one
// vocabulary word. Nothing is returned when the best score is below the
// configured minimum. Results follow vocabulary insertion order.
func (m *Matcher) BestMatches(query string, v *Vocabulary) []Match {
	qw := Words(query)
	if len(qw) == 0 || v == nil {
		return nil
	}

	var (
		best    []Match
		bestNum int
		bestDen = 1
	)

	for _, e := range v.entries {
		matched := m.overlap(qw, e.words)
		if matched == 0 {
			continue
		}

		num, den := 2*matched, len(qw)+len(e.words)

		switch cmp := num*bestDen - bestNum*den; {
		case cmp > 0:
			best = best[:0]
			bestNum, bestDen = num, den
		case cmp < 0:
			continue
		}

		for _, b := range e.Bindings {
			best = append(best, Match{
				Token:   e.Token,
				Binding: b,
				Score:   float64(num) / float64(den),
				Matched: matched,
			})
		}
	}

	if len(best) == 0 || best[0].Score < m.minScore {
		return nil
	}

	return best
}

// overlap counts the vocabulary words that have a similar, not yet used,
// query word. Exact matches are preferred over similar ones.
func (m *Matcher) overlap(query, words []string) int {
	used := make([]bool, len(query))
	matched := 0

	for _, w := range words {
		pick, pickSim := -1, 0.0

		for i, q := range query {
			if used[i] {
				continue
			}

			sim := m.Similarity(q, w)
			if sim >= m.wordSimilarity && sim > pickSim {
				pick, pickSim = i, sim
			}
		}

		if pick >= 0 {
			used[pick] = true
			matched++
		}
	}

	return matched
}

// Similarity returns the similarity of two normalized words in [0, 1].
func (m *Matcher) Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	switch m.metric {
	case MetricJaroWinkler:
		return matchr.JaroWinkler(a, b, false)
	default:
		return levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	}
}

// Suggest returns the vocabulary token closest to query, for use in
// diagnostics when [Matcher.BestMatches] finds nothing. A token is a
// candidate when either text is a character subsequence of the other.
func Suggest(query string, v *Vocabulary) (string, bool) {
	q := strings.ReplaceAll(Tokenize(query), " ", "")
	if q == "" || v == nil || v.Len() == 0 {
		return "", false
	}

	compact := make([]string, v.Len())
	for i, e := range v.entries {
		compact[i] = strings.ReplaceAll(e.Token, " ", "")
	}

	if found := fuzzy.Find(q, compact); len(found) > 0 {
		return v.entries[found[0].Index].Token, true
	}

	bestIdx, bestScore := -1, 0
	for i, c := range compact {
		found := fuzzy.Find(c, []string{q})
		if len(found) > 0 && (bestIdx < 0 || found[0].Score > bestScore ||
			found[0].Score == bestScore && len(c) > len(compact[bestIdx])) {
			bestIdx, bestScore = i, found[0].Score
		}
	}

	if bestIdx < 0 {
		return "", false
	}

	return v.entries[bestIdx].Token, true
}

// Distinct returns the matches with distinct bindings, keeping order.
func Distinct(ms []Match) []Match {
	var out []Match

	for _, m := range ms {
		if !slices.ContainsFunc(out, func(o Match) bool { return o.Binding.equal(m.Binding) }) {
			out = append(out, m)
		}
	}

	return out
}
