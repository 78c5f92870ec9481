package ollama

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"gitpulse/internal/core/category"
	"gitpulse/internal/core/pattern"
)

// minMessageSynonym is the shortest synonym matched anywhere in the commit message
// shorter ones like add and cd only match whole words
const minMessageSynonym = 4

const promptTemplate = `Classify this git commit message:

"%s"

Categories: test, fix, feature, docs, refactor, style, perf, ci, chore, other

Answer with only one word:`

// answer vocabulary in matching order, the legacy terms sit before chore
var vocabulary = []string{"fix", "feature", "docs", "refactor", "test", "style", "perf", "ci", "chore"}

// obvious keywords that make a model answer of other untrustworthy
var obviousKeywords = []string{"fix", "bug", "add", "feat", "test", "doc", "refactor", "update", "style", "chore"}

// Prompt renders the classification prompt for a commit message
func Prompt(message string) string {
	return fmt.Sprintf(promptTemplate, message)
}

// Extract turns a free text model answer into a category
// the original message is used as a last resort signal
func Extract(response, message string) category.Category {
	resp := strings.ToLower(strings.TrimSpace(response))
	msg := strings.ToLower(message)

	for _, term := range vocabulary {
		if strings.Contains(resp, term) {
			return category.Parse(term)
		}
	}

	if c, ok := responseSynonym(resp); ok {
		return c
	}
	if c, ok := messageSynonym(msg); ok {
		return c
	}

	if strings.Contains(resp, string(category.Other)) {
		for _, kw := range obviousKeywords {
			if strings.Contains(msg, kw) {
				return pattern.Classify(message)
			}
		}
	}
	return category.Other
}

func responseSynonym(resp string) (category.Category, bool) {
	for _, s := range synonyms {
		if strings.Contains(resp, s.term) {
			return s.cat, true
		}
	}
	return "", false
}

func messageSynonym(msg string) (category.Category, bool) {
	if msg == "" {
		return "", false
	}
	words := strings.FieldsFunc(msg, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, s := range synonyms {
		if len(s.term) >= minMessageSynonym {
			if strings.Contains(msg, s.term) {
				return s.cat, true
			}
		} else if slices.Contains(words, s.term) {
			return s.cat, true
		}
	}
	return "", false
}
