package phi

import (
	"regexp"
	"strings"
)

// Personal names resist pure regex matching, so two heuristics apply:
// an honorific followed by capitalized words is always a name, and a
// capitalized two-or-three word run starting with a common first name
// is treated as one unless it overlaps an already matched span.

var honorificNameRe = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`)

var capitalizedRunRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}\b`)

var commonFirstNames = map[string]struct{}{
	"james": {}, "john": {}, "robert": {}, "michael": {}, "william": {},
	"david": {}, "richard": {}, "joseph": {}, "thomas": {}, "charles": {},
	"mary": {}, "patricia": {}, "jennifer": {}, "linda": {}, "elizabeth": {},
	"barbara": {}, "susan": {}, "jessica": {}, "sarah": {}, "karen": {},
	"nancy": {}, "margaret": {}, "lisa": {}, "betty": {}, "daniel": {},
	"maria": {}, "carlos": {}, "jose": {}, "ana": {}, "luis": {},
	"wei": {}, "ahmed": {}, "fatima": {}, "priya": {}, "raj": {},
}

type span struct {
	start int
	end   int
}

func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

// findNames returns name spans in text that do not overlap any span in
// taken. Honorific matches win over bare capitalized runs.
func findNames(text string, taken []span) []span {
	var found []span

	for _, m := range honorificNameRe.FindAllStringIndex(text, -1) {
		s := span{m[0], m[1]}
		if !overlapsAny(s, taken) && !overlapsAny(s, found) {
			found = append(found, s)
		}
	}

	for _, m := range capitalizedRunRe.FindAllStringIndex(text, -1) {
		s := span{m[0], m[1]}
		if overlapsAny(s, taken) || overlapsAny(s, found) {
			continue
		}
		first := strings.ToLower(strings.Fields(text[s.start:s.end])[0])
		if _, ok := commonFirstNames[first]; ok {
			found = append(found, s)
		}
	}
	return found
}

func overlapsAny(s span, spans []span) bool {
	for _, other := range spans {
		if s.overlaps(other) {
			return true
		}
	}
	return false
}
