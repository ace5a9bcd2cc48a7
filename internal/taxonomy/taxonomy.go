// Package taxonomy holds the closed set of category labels every output
// transaction must carry, plus the heuristics that map free-form text onto it.
package taxonomy

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Version identifies the label set. Bump it whenever a label changes.
const Version = "2024.1"

// Category labels.
const (
	FoodDining       = "Food & Dining"
	Transportation   = "Transportation"
	Healthcare       = "Healthcare"
	Entertainment    = "Entertainment"
	Shopping         = "Shopping"
	Utilities        = "Utilities"
	Education        = "Education"
	Insurance        = "Insurance"
	PersonalCare     = "Personal Care"
	GiftsDonations   = "Gifts & Donations"
	BusinessServices = "Business Services"
	FeesCharges      = "Fees & Charges"
	Income           = "Income"
	Housing          = "Housing"
	Savings          = "Savings"
	Investment       = "Investment"
	Travel           = "Travel"
	Other            = "Other"
)

var labels = []string{
	FoodDining, Transportation, Healthcare, Entertainment, Shopping,
	Utilities, Education, Insurance, PersonalCare, GiftsDonations,
	BusinessServices, FeesCharges, Income, Housing, Savings, Investment,
	Travel, Other,
}

var labelIndex = func() map[string]string {
	m := make(map[string]string, len(labels))
	for _, l := range labels {
		m[foldLabel(l)] = l
	}
	return m
}()

// All returns the labels in their canonical order.
func All() []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// IsValid reports whether label is exactly one of the taxonomy labels.
func IsValid(label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// Normalize maps label to its canonical spelling, ignoring case, spacing
// and "and" versus "&".
func Normalize(label string) (string, bool) {
	l, ok := labelIndex[foldLabel(label)]
	return l, ok
}

func foldLabel(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.ReplaceAll(s, " and ", " & ")
}

// KeywordRule maps a lowercase substring to a label.
type KeywordRule struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// DefaultKeywordRules is the built-in fallback table. Rules are checked in
// order, so more specific keywords come before the ones they contain
// ("coffee" before "fee", "income" before "interest").
var DefaultKeywordRules = []KeywordRule{
	{"coffee", FoodDining},
	{"food", FoodDining},
	{"restaurant", FoodDining},
	{"dining", FoodDining},
	{"grocer", FoodDining},
	{"transport", Transportation},
	{"fuel", Transportation},
	{"parking", Transportation},
	{"taxi", Transportation},
	{"health", Healthcare},
	{"medical", Healthcare},
	{"pharma", Healthcare},
	{"doctor", Healthcare},
	{"entertain", Entertainment},
	{"movie", Entertainment},
	{"stream", Entertainment},
	{"shop", Shopping},
	{"retail", Shopping},
	{"utilit", Utilities},
	{"electric", Utilities},
	{"internet", Utilities},
	{"phone", Utilities},
	{"educat", Education},
	{"tuition", Education},
	{"insur", Insurance},
	{"personal", PersonalCare},
	{"beauty", PersonalCare},
	{"salon", PersonalCare},
	{"gift", GiftsDonations},
	{"donat", GiftsDonations},
	{"charit", GiftsDonations},
	{"business", BusinessServices},
	{"office", BusinessServices},
	{"income", Income},
	{"salary", Income},
	{"payroll", Income},
	{"fee", FeesCharges},
	{"charge", FeesCharges},
	{"interest", FeesCharges},
	{"rent", Housing},
	{"mortgage", Housing},
	{"housing", Housing},
	{"saving", Savings},
	{"invest", Investment},
	{"brokerage", Investment},
	{"travel", Travel},
	{"hotel", Travel},
	{"airline", Travel},
	{"flight", Travel},
}

// maxFuzzyRatio bounds the normalized edit distance accepted by Fallback.
const maxFuzzyRatio = 0.34

// Taxonomy applies keyword rules on top of the fixed label set.
type Taxonomy struct {
	rules []KeywordRule
}

// New returns a Taxonomy using extra rules first, then DefaultKeywordRules.
// Rules pointing at unknown labels are ignored.
func New(extra ...KeywordRule) *Taxonomy {
	rules := make([]KeywordRule, 0, len(extra)+len(DefaultKeywordRules))
	for _, r := range append(append([]KeywordRule{}, extra...), DefaultKeywordRules...) {
		label, ok := Normalize(r.Category)
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if !ok || kw == "" {
			continue
		}
		rules = append(rules, KeywordRule{Keyword: kw, Category: label})
	}
	return &Taxonomy{rules: rules}
}

// Labels returns the taxonomy labels.
func (t *Taxonomy) Labels() []string {
	return All()
}

// Rules returns the active keyword rules in evaluation order.
func (t *Taxonomy) Rules() []KeywordRule {
	out := make([]KeywordRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// MatchKeyword returns the label of the first rule whose keyword occurs in text.
func (t *Taxonomy) MatchKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, r := range t.rules {
		if strings.Contains(lower, r.Keyword) {
			return r.Category, true
		}
	}
	return "", false
}

// Closest returns the label with the smallest edit distance to raw when the
// distance is small relative to the label length.
func (t *Taxonomy) Closest(raw string) (string, bool) {
	folded := foldLabel(raw)
	if folded == "" {
		return "", false
	}
	best, bestRatio := "", 1.0
	for _, l := range labels {
		target := foldLabel(l)
		d := levenshtein.ComputeDistance(folded, target)
		ratio := float64(d) / float64(maxLen(folded, target))
		if ratio < bestRatio {
			best, bestRatio = l, ratio
		}
	}
	if bestRatio <= maxFuzzyRatio {
		return best, true
	}
	return "", false
}

// Fallback maps any free-form text onto the taxonomy without inference:
// exact label, then keyword rules, then fuzzy label match, then Other.
func (t *Taxonomy) Fallback(raw string) string {
	if l, ok := Normalize(raw); ok {
		return l
	}
	if l, ok := t.MatchKeyword(raw); ok {
		return l
	}
	if l, ok := t.Closest(raw); ok {
		return l
	}
	return Other
}

// Resolve validates a label proposed by the inference service. Valid labels
// are canonicalized; anything else goes through Fallback.
func (t *Taxonomy) Resolve(proposed string) string {
	if l, ok := Normalize(proposed); ok {
		return l
	}
	return t.Fallback(proposed)
}

func maxLen(a, b string) int {
	if len(a) > len(b) {
		return len(a)
	}
	return len(b)
}
