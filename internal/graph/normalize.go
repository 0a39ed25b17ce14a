package graph

import "strings"

// Category suffixes the synthesizer tends to leave on terse labels, e.g.
// "MFA Issues" or "Billing Request".
var categorySuffixes = []string{"Issues", "Request", "Problem", "Confusion"}

var cueWords = map[string]bool{
	"what": true, "which": true, "when": true, "where": true,
	"who": true, "whom": true, "why": true, "how": true,
}

var auxiliaryPrefixes = []string{"is ", "does ", "has ", "can "}

// NormalizeLabels rewrites every question node's label into interrogative
// form. Deterministic, total, and idempotent; non-question nodes are left
// alone.
func NormalizeLabels(g *Graph) {
	if g == nil {
		return
	}
	for i := range g.Nodes {
		if g.Nodes[i].Kind == KindQuestion {
			g.Nodes[i].Label = NormalizeQuestionLabel(g.Nodes[i].Label)
		}
	}
}

// NormalizeQuestionLabel turns a terse category label into a question.
// Labels already ending in "?" pass through unchanged, which makes the
// function idempotent.
func NormalizeQuestionLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" || strings.HasSuffix(trimmed, "?") {
		return label
	}

	phrase := stripCategorySuffix(trimmed)
	if phrase == "" {
		phrase = trimmed
	}

	lower := strings.ToLower(phrase)
	if containsCueWord(lower) || hasAuxiliaryPrefix(lower) {
		return phrase + "?"
	}
	if strings.Contains(lower, "type") || strings.Contains(lower, "kind") || strings.Contains(lower, "category") {
		return "What " + phrase + "?"
	}
	return "Is this " + article(phrase) + " " + phrase + " issue?"
}

func stripCategorySuffix(label string) string {
	for _, suffix := range categorySuffixes {
		if strings.HasSuffix(label, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(label, suffix))
		}
	}
	return label
}

func containsCueWord(lower string) bool {
	for _, word := range strings.Fields(lower) {
		if cueWords[strings.Trim(word, ",.;:")] {
			return true
		}
	}
	return false
}

func hasAuxiliaryPrefix(lower string) bool {
	for _, p := range auxiliaryPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// Letters whose spoken names start with a vowel sound, for initialisms:
// "an MFA issue", "an SSO issue".
const vowelSoundInitials = "AEFHILMNORSX"

// article picks "a" or "an" for the phrase. Words starting with a vowel get
// "an"; all-caps initialisms are judged by the spoken name of their first
// letter.
func article(phrase string) string {
	if phrase == "" {
		return "a"
	}
	first := rune(phrase[0])
	switch first {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return "an"
	}
	firstWord := strings.Fields(phrase)[0]
	if firstWord == strings.ToUpper(firstWord) && len(firstWord) >= 2 &&
		strings.ContainsRune(vowelSoundInitials, first) {
		return "an"
	}
	return "a"
}
