// Package rank orders a tool catalog against a query using fuzzy field
// scores, favorite/recency boosts, and a thresholded tie-break cascade.
package rank

import (
	"sort"
	"strings"

	"github.com/gdziedzic/toolsearch/internal/domain/tool"
	"github.com/gdziedzic/toolsearch/internal/fuzzy"
)

// ExactNameScore is the priority override for an exact case-insensitive
// name match. It sits outside the 0-100 fuzzy contract on purpose: it is
// a sort sentinel, never a score to normalize or compare against content
// scores elsewhere.
const ExactNameScore = 1000

// Defaults and weights.
const (
	DefaultMaxResults = 50
	DefaultMinScore   = 20

	// Name scores are floored when the name contains or starts with the
	// query, so near-exact name hits dominate field matches.
	substringNameFloor = 95
	prefixNameFloor    = 98

	descriptionWeight = 0.3
	categoryWeight    = 0.4
	keywordWeight     = 0.5

	// strongNameCutoff decides whether the name score dominates or the
	// other fields get to compete.
	strongNameCutoff = 50

	favoriteBoost = 15
	recentBoost   = 5

	// tieThreshold is the noise band: scores within it fall through to
	// the next cascade rule.
	tieThreshold = 5
)

// Options configures one ranking pass.
type Options struct {
	MaxResults          int
	MinScore            float64
	Favorites           []string
	RecentTools         []string
	PrioritizeFavorites bool
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	return o
}

// Details breaks a result score down by field.
type Details struct {
	NameScore     float64 `json:"nameScore"`
	DescScore     float64 `json:"descScore,omitempty"`
	CategoryScore float64 `json:"categoryScore,omitempty"`
	KeywordScore  float64 `json:"keywordScore,omitempty"`
}

// Result is one ranked tool.
type Result struct {
	Tool       tool.Record `json:"tool"`
	Score      float64     `json:"score"`
	Details    Details     `json:"details"`
	IsFavorite bool        `json:"isFavorite"`
	IsRecent   bool        `json:"isRecent"`
}

// Rank scores tools against query and returns them ordered by the
// tie-break cascade, truncated to MaxResults. A blank query returns the
// whole catalog ordered by favorite, recency, then name.
func Rank(tools []tool.Record, query string, opts Options) []Result {
	opts = opts.withDefaults()
	favorites := toSet(opts.Favorites)
	recents := toSet(opts.RecentTools)

	query = strings.TrimSpace(query)
	if query == "" {
		return rankBrowse(tools, favorites, recents, opts.MaxResults)
	}

	results := make([]Result, 0, len(tools))
	for _, t := range tools {
		if !t.Valid() {
			continue
		}
		r, ok := scoreTool(t, query, favorites, recents, opts)
		if !ok {
			continue
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return less(results[i], results[j])
	})

	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results
}

// scoreTool computes one tool's score. ok is false when the score does
// not clear MinScore.
func scoreTool(
	t tool.Record, query string,
	favorites, recents map[string]struct{}, opts Options,
) (Result, bool) {
	r := Result{Tool: t}
	_, r.IsFavorite = favorites[t.ID]
	_, r.IsRecent = recents[t.ID]

	// Exact name match short-circuits everything.
	if strings.EqualFold(t.Name, query) {
		r.Score = ExactNameScore
		r.Details = Details{NameScore: ExactNameScore}
		return r, true
	}

	nameScore := fuzzy.Score(query, t.Name)
	lname := strings.ToLower(t.Name)
	lquery := strings.ToLower(query)
	if strings.HasPrefix(lname, lquery) {
		nameScore = max(nameScore, prefixNameFloor)
	} else if strings.Contains(lname, lquery) {
		nameScore = max(nameScore, substringNameFloor)
	}

	descScore := fuzzy.Score(query, t.Description) * descriptionWeight
	categoryScore := fuzzy.Score(query, t.Category) * categoryWeight
	var keywordScore float64
	for _, k := range t.Keywords {
		keywordScore = max(keywordScore, fuzzy.Score(query, k))
	}
	keywordScore *= keywordWeight

	var base float64
	if nameScore > strongNameCutoff {
		// Strong name match dominates; other fields only nudge.
		base = nameScore + 0.1*descScore + 0.1*categoryScore
	} else {
		// Weak name match lets other fields compete, name still
		// double-weighted.
		base = max(max(2*nameScore, descScore), max(categoryScore, keywordScore))
	}

	if base > 0 {
		if opts.PrioritizeFavorites && r.IsFavorite {
			base += favoriteBoost
		}
		if r.IsRecent {
			base += recentBoost
		}
	}

	if base <= opts.MinScore {
		return Result{}, false
	}

	r.Score = base
	r.Details = Details{
		NameScore:     nameScore,
		DescScore:     descScore,
		CategoryScore: categoryScore,
		KeywordScore:  keywordScore,
	}
	return r, true
}

// less implements the tie-break cascade: the first rule whose inputs
// differ by more than the noise threshold wins.
func less(a, b Result) bool {
	if diff := a.Score - b.Score; diff > tieThreshold || diff < -tieThreshold {
		return a.Score > b.Score
	}
	if diff := a.Details.NameScore - b.Details.NameScore; diff > tieThreshold || diff < -tieThreshold {
		return a.Details.NameScore > b.Details.NameScore
	}
	if a.IsFavorite != b.IsFavorite {
		return a.IsFavorite
	}
	if a.IsRecent != b.IsRecent {
		return a.IsRecent
	}
	return nameLess(a.Tool.Name, b.Tool.Name)
}

// rankBrowse handles the no-query path: the full catalog tagged with
// favorite/recency flags, favorites first.
func rankBrowse(
	tools []tool.Record, favorites, recents map[string]struct{}, maxResults int,
) []Result {
	results := make([]Result, 0, len(tools))
	for _, t := range tools {
		if !t.Valid() {
			continue
		}
		r := Result{Tool: t}
		_, r.IsFavorite = favorites[t.ID]
		_, r.IsRecent = recents[t.ID]
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		if a.IsRecent != b.IsRecent {
			return a.IsRecent
		}
		return nameLess(a.Tool.Name, b.Tool.Name)
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func nameLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
