package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// EmailPattern matches an RFC-loose email address. Shared with the lead
// extractor so both sides agree on what counts as an address.
var EmailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)

// Defaults for the loose heuristics. They are tuned for "reasonable human
// judgment", not validation, and can be overridden per Guard.
var (
	DefaultMinPhoneDigits  = 8
	DefaultAddressSuffixes = []string{
		"street", "st", "road", "rd", "avenue", "ave", "boulevard", "blvd",
		"drive", "dr", "lane", "ln", "court", "ct",
	}
	DefaultExactPriceKeywords = []string{
		"exact", "precise", "fixed price", "final price", "guaranteed",
	}
)

// Guard detects personal data and exact-price phrasing. The zero value is
// not usable; build one with NewGuard.
type Guard struct {
	minPhoneDigits  int
	addressSuffixes []string
	exactKeywords   []string

	phone   *regexp.Regexp
	address *regexp.Regexp
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithMinPhoneDigits sets how many digits a run needs before it is treated
// as a phone number. Values below 2 are raised to 2.
func WithMinPhoneDigits(n int) GuardOption {
	return func(g *Guard) {
		if n < 2 {
			n = 2
		}
		g.minPhoneDigits = n
	}
}

// WithAddressSuffixes replaces the recognized street-type suffixes.
func WithAddressSuffixes(suffixes []string) GuardOption {
	return func(g *Guard) {
		if len(suffixes) > 0 {
			g.addressSuffixes = suffixes
		}
	}
}

// WithExactPriceKeywords replaces the phrases that mark an exact-price ask.
func WithExactPriceKeywords(keywords []string) GuardOption {
	return func(g *Guard) {
		if len(keywords) > 0 {
			g.exactKeywords = keywords
		}
	}
}

// NewGuard compiles a Guard from the defaults plus opts.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{
		minPhoneDigits:  DefaultMinPhoneDigits,
		addressSuffixes: DefaultAddressSuffixes,
		exactKeywords:   DefaultExactPriceKeywords,
	}
	for _, o := range opts {
		o(g)
	}

	g.phone = regexp.MustCompile(fmt.Sprintf(`(?:\+?\d[\s\-().]*){%d,}\d`, g.minPhoneDigits-1))

	quoted := make([]string, len(g.addressSuffixes))
	for i, s := range g.addressSuffixes {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(s)))
	}
	g.address = regexp.MustCompile(`(?i)\b\d{1,5}\s+\w+(?:\s+\w+){0,3}\s+(?:` +
		strings.Join(quoted, "|") + `)\b`)

	folded := make([]string, len(g.exactKeywords))
	for i, k := range g.exactKeywords {
		folded[i] = Normalize(k)
	}
	g.exactKeywords = folded
	return g
}

// HasPersonalInfo reports whether text contains an email address, a phone
// number or a street address. False positives are acceptable.
func (g *Guard) HasPersonalInfo(text string) bool {
	return EmailPattern.MatchString(text) ||
		g.phone.MatchString(text) ||
		g.address.MatchString(text)
}

// IsExactPriceRequest reports whether text asks for a fixed or guaranteed
// figure.
func (g *Guard) IsExactPriceRequest(text string) bool {
	return containsAny(Normalize(text), g.exactKeywords)
}

var defaultGuard = NewGuard()

// HasPersonalInfo runs the default guard.
func HasPersonalInfo(text string) bool {
	return defaultGuard.HasPersonalInfo(text)
}

// IsExactPriceRequest runs the default guard.
func IsExactPriceRequest(text string) bool {
	return defaultGuard.IsExactPriceRequest(text)
}
