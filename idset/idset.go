// Package idset converts between the compact range notation used for CPU and
// GPU identifiers ("0-4,7-9,11") and explicit, ascending sets of integers.
//
// The notation is a comma-separated list of tokens, where each token is either
// a single non-negative integer or an inclusive range "a-b" with a <= b.
// Whitespace is not permitted anywhere inside the text.
//
// # Basic Usage
//
//	ids, err := idset.Decode("0-4,7-9,11")
//	// ids: [0 1 2 3 4 7 8 9 11]
//
//	text := idset.Encode([]int{11, 0, 1, 2, 3, 4, 7, 8, 9})
//	// text: "0-4,7-9,11"
//
// Encode is canonicalizing, so only the set level round trip
// Decode(Encode(Decode(s))) == Decode(s) is guaranteed, not the literal text.
package idset

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxID is the largest identifier Decode accepts. Overlapping and repeated
// ranges are merged before they are expanded, so a decoded set never holds
// more than MaxID+1 ids however many tokens the text has.
const MaxID = 1 << 22

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("idset: parse error")

// ParseError reports a malformed token in an id-set text.
type ParseError struct {
	// Input is the complete text passed to Decode.
	Input string

	// Token is the offending comma-separated token.
	Token string

	// Reason describes what is wrong with Token.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("idset: invalid token %q in %q: %s", e.Token, e.Input, e.Reason)
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Decode parses text into an ascending, duplicate-free slice of ids.
// The empty string decodes to an empty (nil) slice.
func Decode(text string) ([]int, error) {
	if text == "" {
		return nil, nil
	}

	spans := make([]span, 0, strings.Count(text, ",")+1)
	for _, token := range strings.Split(text, ",") {
		lo, hi, err := parseToken(token)
		if err != nil {
			err.Input = text
			return nil, err
		}
		spans = append(spans, span{lo, hi})
	}

	spans = merge(spans)

	n := 0
	for _, sp := range spans {
		n += sp.hi - sp.lo + 1
	}
	ids := make([]int, 0, n)
	for _, sp := range spans {
		for id := sp.lo; id <= sp.hi; id++ {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// span is an inclusive id range.
type span struct{ lo, hi int }

// merge sorts spans and joins those that overlap or touch. The result is
// disjoint and ascending.
func merge(spans []span) []span {
	slices.SortFunc(spans, func(a, b span) int { return a.lo - b.lo })

	out := spans[:1]
	for _, sp := range spans[1:] {
		last := &out[len(out)-1]
		if sp.lo <= last.hi+1 {
			last.hi = max(last.hi, sp.hi)
			continue
		}
		out = append(out, sp)
	}
	return out
}

// Count returns the number of distinct ids in text. It is always equal to
// len(Decode(text)).
func Count(text string) (int, error) {
	ids, err := Decode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Encode renders ids in canonical form: ascending, duplicates removed, maximal
// runs of consecutive ids collapsed into "start-end" and single ids written
// bare. The input slice is not modified.
//
// Encode panics if any id is negative.
func Encode(ids []int) string {
	if len(ids) == 0 {
		return ""
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if sorted[0] < 0 {
		panic(fmt.Sprintf("idset: negative id %d", sorted[0]))
	}

	var b strings.Builder
	start := sorted[0]
	prev := start
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(start))
		if prev != start {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(prev))
		}
	}

	for _, id := range sorted[1:] {
		if id == prev+1 {
			prev = id
			continue
		}
		flush()
		start, prev = id, id
	}
	flush()

	return b.String()
}

// parseToken parses a single "n" or "a-b" token into an inclusive bound pair.
func parseToken(token string) (int, int, *ParseError) {
	if token == "" {
		return 0, 0, &ParseError{Token: token, Reason: "empty token"}
	}

	first, last, isRange := strings.Cut(token, "-")
	lo, err := parseID(first)
	if err != nil {
		return 0, 0, &ParseError{Token: token, Reason: err.Error()}
	}
	if !isRange {
		return lo, lo, nil
	}

	hi, err := parseID(last)
	if err != nil {
		return 0, 0, &ParseError{Token: token, Reason: err.Error()}
	}
	if lo > hi {
		return 0, 0, &ParseError{Token: token, Reason: fmt.Sprintf("range start %d is greater than end %d", lo, hi)}
	}
	return lo, hi, nil
}

// parseID accepts only plain decimal digits, so signs, spaces and a second
// '-' inside a range are all rejected here.
func parseID(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing number")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("unexpected character %q", s[i])
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || n > MaxID {
		return 0, fmt.Errorf("id exceeds maximum %d", MaxID)
	}
	return n, nil
}
