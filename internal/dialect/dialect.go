// Package dialect sniffs the CSV dialect (delimiter, quote character) of a
// resource when the operator hasn't pinned one via configuration, using the
// same rune-based dialect model a CSV loader would take directly from
// configuration.
package dialect

import "strings"

// candidates is the fixed, ordered set of delimiters dialect sniffing votes
// over. Comma is listed first so it wins ties, matching its status as the
// overwhelmingly common default.
var candidates = []rune{',', '\t', ';', '|'}

// DefaultQuote is the quote character assumed when sniffing, since
// encoding/csv only supports a single configured quote rune and every
// candidate delimiter is vanishingly unlikely to appear as a quote character
// in practice.
const DefaultQuote = '"'

// Dialect is the detected (or configured) CSV syntax for one resource.
type Dialect struct {
	Delimiter rune
	Quote     rune
}

// Sniff picks the delimiter whose count is highest and consistent across the
// sample lines, breaking ties by candidate order. Quote is always
// DefaultQuote; sniffing never detects a quote character, and a configured
// quote option overrides it in the resource pipeline.
func Sniff(sampleLines []string) Dialect {
	lines := nonEmptyLines(sampleLines)
	if len(lines) == 0 {
		return Dialect{Delimiter: ',', Quote: DefaultQuote}
	}

	best := candidates[0]
	bestScore := -1
	for _, d := range candidates {
		score := voteScore(lines, d)
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	return Dialect{Delimiter: best, Quote: DefaultQuote}
}

// voteScore rewards a delimiter that appears a consistent, non-zero number
// of times across every sampled line: the per-line count's minimum, which is
// zero (and so loses to any delimiter that actually appears throughout) the
// moment one sampled line doesn't contain it at all.
func voteScore(lines []string, d rune) int {
	min := -1
	for _, line := range lines {
		n := strings.Count(line, string(d))
		if min == -1 || n < min {
			min = n
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func nonEmptyLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
