// Package interest scores a session's product-category affinity from the
// text of the products it viewed or carted.
package interest

import (
	"math"
	"strings"
)

// Category labels reported by the scorer.
const (
	CategoryDogs    = "dogs"
	CategoryCats    = "cats"
	CategoryOther   = "other"
	CategoryUnknown = "unknown"
)

// Keywords holds the category vocabularies. Matching is case-insensitive
// substring matching over product title plus URL.
type Keywords struct {
	Dog []string
	Cat []string
}

// DefaultKeywords returns the built-in English and Arabic vocabulary.
func DefaultKeywords() Keywords {
	return Keywords{
		Dog: []string{"dog", "dogs", "puppy", "leash", "kennel", "كلب", "كلاب", "جرو"},
		Cat: []string{"cat", "cats", "kitten", "litter", "قط", "قطة", "قطط", "هريرة"},
	}
}

// ProductEvent is the searchable text of one qualifying event.
type ProductEvent struct {
	Title string
	URL   string
}

// Profile is the scored affinity of one session. Ratios are rounded to two
// decimals; Dominant is "unknown" when no events scored.
type Profile struct {
	DogScore   float64 `json:"dog_score"`
	CatScore   float64 `json:"cat_score"`
	OtherScore float64 `json:"other_score"`
	DogRatio   float64 `json:"dog_ratio"`
	CatRatio   float64 `json:"cat_ratio"`
	OtherRatio float64 `json:"other_ratio"`
	Dominant   string  `json:"dominant"`
}

// Scorer scores product events against a keyword vocabulary.
type Scorer struct {
	dog []string
	cat []string
}

// NewScorer creates a scorer. Empty keyword lists fall back to the default
// vocabulary.
func NewScorer(keywords Keywords) *Scorer {
	defaults := DefaultKeywords()
	if len(keywords.Dog) == 0 {
		keywords.Dog = defaults.Dog
	}
	if len(keywords.Cat) == 0 {
		keywords.Cat = defaults.Cat
	}

	return &Scorer{
		dog: lowercase(keywords.Dog),
		cat: lowercase(keywords.Cat),
	}
}

// Score accumulates category scores over the given events. An event
// matching only dog terms adds 1 to dogs, only cat terms 1 to cats, both
// 0.5 to each, neither 1 to other. Ties between equal ratios resolve in the
// order dogs, cats, other.
func (s *Scorer) Score(events []ProductEvent) Profile {
	var p Profile

	for _, ev := range events {
		text := strings.ToLower(ev.Title + " " + ev.URL)
		dog := containsAny(text, s.dog)
		cat := containsAny(text, s.cat)

		switch {
		case dog && cat:
			p.DogScore += 0.5
			p.CatScore += 0.5
		case dog:
			p.DogScore++
		case cat:
			p.CatScore++
		default:
			p.OtherScore++
		}
	}

	total := p.DogScore + p.CatScore + p.OtherScore
	if total == 0 {
		p.Dominant = CategoryUnknown
		return p
	}

	p.DogRatio = round2(p.DogScore / total)
	p.CatRatio = round2(p.CatScore / total)
	p.OtherRatio = round2(p.OtherScore / total)

	switch {
	case p.DogScore >= p.CatScore && p.DogScore >= p.OtherScore:
		p.Dominant = CategoryDogs
	case p.CatScore >= p.OtherScore:
		p.Dominant = CategoryCats
	default:
		p.Dominant = CategoryOther
	}

	return p
}

func lowercase(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
