package category

import "regexp"

// Category identifies a document category known to the dashboard.
type Category string

const (
	Contract     Category = "contract"
	Invoice      Category = "invoice"
	Insurance    Category = "insurance"
	Permit       Category = "permit"
	License      Category = "license"
	Registration Category = "registration"
	Inspection   Category = "inspection"
	Tax          Category = "tax"
	BOL          Category = "bol"
	Medical      Category = "medical"
	Other        Category = "other"
)

// Rule pairs a filename pattern with the category it implies.
type Rule struct {
	Pattern  *regexp.Regexp
	Category Category
}

// rules is evaluated top to bottom; the first match wins. Order is a
// contract: a filename matching several patterns resolves by position in
// this table, not by any notion of best match.
var rules = []Rule{
	{regexp.MustCompile(`(?i)insurance|liability|\bcoi\b`), Insurance},
	{regexp.MustCompile(`(?i)contract|agreement|lease`), Contract},
	{regexp.MustCompile(`(?i)invoice|billing|\binv[-_ ]?\d`), Invoice},
	{regexp.MustCompile(`(?i)permit|oversize|overweight`), Permit},
	{regexp.MustCompile(`(?i)\bcdl\b|license|licence`), License},
	{regexp.MustCompile(`(?i)registration|cab.?card|\bmc[-_ ]?\d`), Registration},
	{regexp.MustCompile(`(?i)inspection|maintenance|\bdvir\b`), Inspection},
	{regexp.MustCompile(`(?i)\bifta\b|\btax\b|\b2290\b`), Tax},
	{regexp.MustCompile(`(?i)\bbol\b|bill.?of.?lading|\bpod\b|rate.?con`), BOL},
	{regexp.MustCompile(`(?i)medical|physical|drug.?test`), Medical},
}

// Detect classifies a filename against the ordered rule table. It never
// fails; filenames matching no rule fall through to Other.
func Detect(filename string) Category {
	for _, r := range rules {
		if r.Pattern.MatchString(filename) {
			return r.Category
		}
	}
	return Other
}

// Rules returns the rule table for inspection. Callers must not mutate it.
func Rules() []Rule {
	return rules
}

// Categories lists every category the rule table can produce, plus Other,
// in table order. Useful for validating user-supplied category values.
func Categories() []Category {
	out := make([]Category, 0, len(rules)+1)
	seen := make(map[Category]struct{}, len(rules)+1)
	for _, r := range rules {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return append(out, Other)
}

// Known reports whether the given value names a known category.
func Known(value string) bool {
	for _, c := range Categories() {
		if string(c) == value {
			return true
		}
	}
	return false
}
