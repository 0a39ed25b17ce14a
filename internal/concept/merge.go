package concept

import (
	"strings"
	"unicode"
)

// Merge folds per-chunk concept graphs into one deduplicated graph.
//
// Dedup rules: principles by exact text, user types and issue categories
// case-insensitively (first-seen casing wins), procedures by lowercase name,
// decision points by a normalized question key with punctuation stripped,
// and concept order preserving first occurrence. The retained *set* of items
// is independent of input order; only display order follows first
// occurrence.
func Merge(graphs []*Graph) *Graph {
	merged := &Graph{}
	merged.normalize()

	seenPrinciple := map[string]bool{}
	seenUserType := map[string]bool{}
	seenCategory := map[string]bool{}
	seenProcedure := map[string]bool{}
	seenQuestion := map[string]bool{}
	seenConcept := map[string]bool{}

	for _, g := range graphs {
		if g == nil {
			continue
		}
		for _, p := range g.Principles {
			if p == "" || seenPrinciple[p] {
				continue
			}
			seenPrinciple[p] = true
			merged.Principles = append(merged.Principles, p)
		}
		for _, ut := range g.UserTypes {
			key := strings.ToLower(strings.TrimSpace(ut))
			if key == "" || seenUserType[key] {
				continue
			}
			seenUserType[key] = true
			merged.UserTypes = append(merged.UserTypes, ut)
		}
		for _, ic := range g.IssueCategories {
			key := strings.ToLower(strings.TrimSpace(ic))
			if key == "" || seenCategory[key] {
				continue
			}
			seenCategory[key] = true
			merged.IssueCategories = append(merged.IssueCategories, ic)
		}
		for _, proc := range g.Procedures {
			key := strings.ToLower(strings.TrimSpace(proc.Name))
			if key == "" || seenProcedure[key] {
				continue
			}
			seenProcedure[key] = true
			merged.Procedures = append(merged.Procedures, proc)
		}
		for _, dp := range g.DecisionPoints {
			key := questionKey(dp.Question)
			if key == "" || seenQuestion[key] {
				continue
			}
			seenQuestion[key] = true
			merged.DecisionPoints = append(merged.DecisionPoints, dp)
		}
		for _, c := range g.ConceptOrder {
			key := strings.ToLower(strings.TrimSpace(c))
			if key == "" || seenConcept[key] {
				continue
			}
			seenConcept[key] = true
			merged.ConceptOrder = append(merged.ConceptOrder, c)
		}
	}

	return merged
}

// questionKey normalizes a decision-point question for dedup: lowercase,
// punctuation stripped, whitespace collapsed.
func questionKey(q string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(q) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
