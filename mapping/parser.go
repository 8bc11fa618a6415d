package mapping

import (
	"regexp"
	"strconv"
	"strings"
)

// marker starts every record in the engine's mapping text.
const marker = "mpibind:"

// recordPattern matches one normalized record. The engine prints "nths" for
// the thread count; older front ends print "thds". Keywords and values are
// separated by whitespace; the GPU id-set may be empty. Anything after the
// CPU id-set is ignored.
var recordPattern = regexp.MustCompile(
	`^\s*task\s+(\d+)\s+(?:thds|nths)\s+(\d+)\s+gpus\s+(?:([\d,\-]+)\s+)?cpus\s+([\d,\-]+)`,
)

// fieldPatterns locate each keyword on its own so a failed match can name the
// field that is missing.
var fieldPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"task", regexp.MustCompile(`\btask\s+\d+`)},
	{"thds", regexp.MustCompile(`\b(?:thds|nths)\s+\d+`)},
	{"gpus", regexp.MustCompile(`\bgpus\b`)},
	{"cpus", regexp.MustCompile(`\bcpus\s+[\d,\-]+`)},
}

// ParseMappingText converts raw engine output into a Mapping.
//
// Text before the first "mpibind:" marker is treated as engine diagnostics and
// discarded. Every marker starts one record; records are returned in the order
// they appear and the task number printed in the record is not used.
//
// Empty or whitespace-only text yields an empty Mapping. Nonempty text without
// any marker, or a record missing a field, yields a *MappingFormatError. A
// malformed id-set yields a *ParseError.
func ParseMappingText(text string) (Mapping, error) {
	if strings.TrimSpace(text) == "" {
		return Mapping{}, nil
	}

	segments := strings.Split(text, marker)
	if len(segments) == 1 {
		return nil, &MappingFormatError{
			Record: -1,
			Text:   preview(text),
			Reason: "no " + marker + " marker found",
		}
	}

	records := segments[1:]
	m := make(Mapping, 0, len(records))
	for i, raw := range records {
		ta, err := parseRecord(i, normalize(raw))
		if err != nil {
			return nil, err
		}
		m = append(m, ta)
	}

	debugLog("parsed %d task records", len(m))
	return m, nil
}

func parseRecord(index int, record string) (TaskAssignment, error) {
	match := recordPattern.FindStringSubmatch(record)
	if match == nil {
		return TaskAssignment{}, &MappingFormatError{
			Record: index,
			Text:   record,
			Reason: missingField(record),
		}
	}

	threads, err := strconv.Atoi(match[2])
	if err != nil {
		return TaskAssignment{}, &MappingFormatError{
			Record: index,
			Text:   record,
			Reason: "thread count out of range",
		}
	}

	return NewTaskAssignment(threads, match[4], match[3])
}

// normalize collapses every run of whitespace, line breaks included, into a
// single space.
func normalize(record string) string {
	return strings.Join(strings.Fields(record), " ")
}

func missingField(record string) string {
	for _, f := range fieldPatterns {
		if !f.pattern.MatchString(record) {
			return "missing " + f.name + " field"
		}
	}
	return "fields out of order"
}

func preview(text string) string {
	const limit = 64
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
