// Package pattern classifies commit messages with ordered prefix rules,
// conventional commit syntax, a word dictionary and a length heuristic
package pattern

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"gitpulse/internal/core/category"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// shortMessage is the length in characters under which an undecided message is treated as chore
const shortMessage = 15

type rule struct {
	cat   category.Category
	words []string
}

// prefix rules, first match wins
var rules = []rule{
	{category.Fix, []string{"fix", "bug", "hotfix", "patch", "resolve", "correct"}},
	{category.Feature, []string{"feat", "add", "implement", "new", "enhance", "improve"}},
	{category.Docs, []string{"docs", "readme", "documentation", "comment"}},
	{category.Refactor, []string{"refactor", "cleanup", "restructure", "optimize", "reorganize"}},
	{category.Test, []string{"test", "spec", "specs", "testing", "coverage"}},
	{category.Style, []string{"style", "format", "lint", "prettier", "indent"}},
	{category.Chore, []string{"chore", "ci", "build", "deploy", "maintenance", "deps"}},
}

// conventional commit types; feat is the conventional spelling of feature
var conventional = map[string]category.Category{
	"fix":      category.Fix,
	"feat":     category.Feature,
	"feature":  category.Feature,
	"docs":     category.Docs,
	"refactor": category.Refactor,
	"test":     category.Test,
	"style":    category.Style,
	"chore":    category.Chore,
}

// dictionary routes some words differently than the prefix rules
// e.g. disable is a fix and remove is a refactor
var dictionary = map[string]category.Category{
	// fix
	"fix": category.Fix, "fixed": category.Fix, "fixes": category.Fix, "fixing": category.Fix,
	"bug": category.Fix, "bugs": category.Fix, "bugfix": category.Fix, "hotfix": category.Fix,
	"patch": category.Fix, "resolve": category.Fix, "resolved": category.Fix, "resolves": category.Fix,
	"correct": category.Fix, "repair": category.Fix, "error": category.Fix, "crash": category.Fix,
	"issue": category.Fix, "disable": category.Fix, "revert": category.Fix,

	// feature
	"feat": category.Feature, "feature": category.Feature, "add": category.Feature,
	"added": category.Feature, "adds": category.Feature, "adding": category.Feature,
	"implement": category.Feature, "implemented": category.Feature, "new": category.Feature,
	"enhance": category.Feature, "improve": category.Feature, "create": category.Feature,
	"introduce": category.Feature, "support": category.Feature, "enable": category.Feature,

	// docs
	"docs": category.Docs, "doc": category.Docs, "readme": category.Docs,
	"documentation": category.Docs, "comment": category.Docs, "comments": category.Docs,
	"changelog": category.Docs,

	// refactor
	"refactor": category.Refactor, "refactored": category.Refactor, "cleanup": category.Refactor,
	"clean": category.Refactor, "restructure": category.Refactor, "optimize": category.Refactor,
	"reorganize": category.Refactor, "simplify": category.Refactor, "remove": category.Refactor,
	"removed": category.Refactor, "delete": category.Refactor, "rename": category.Refactor,
	"move": category.Refactor, "extract": category.Refactor,

	// test
	"test": category.Test, "tests": category.Test, "spec": category.Test, "specs": category.Test,
	"testing": category.Test, "coverage": category.Test, "unit": category.Test,

	// style
	"style": category.Style, "format": category.Style, "formatting": category.Style,
	"lint": category.Style, "prettier": category.Style, "indent": category.Style,
	"whitespace": category.Style,

	// chore
	"chore": category.Chore, "ci": category.Chore, "build": category.Chore, "deploy": category.Chore,
	"maintenance": category.Chore, "deps": category.Chore, "dependency": category.Chore,
	"dependencies": category.Chore, "update": category.Chore, "updated": category.Chore,
	"updates": category.Chore, "bump": category.Chore, "upgrade": category.Chore,
	"release": category.Chore, "version": category.Chore, "merge": category.Chore,
	"config": category.Chore,
}

// Classify maps a commit message to a category
func Classify(message string) category.Category {
	msg := Normalize(message)
	if msg == "" {
		return category.Other
	}

	for _, r := range rules {
		for _, w := range r.words {
			if strings.HasPrefix(msg, w) {
				return r.cat
			}
		}
	}

	// type: subject
	if head, _, ok := strings.Cut(msg, ":"); ok {
		if c, ok := conventional[strings.TrimSpace(head)]; ok {
			return c
		}
	}

	// type(scope): subject
	if strings.Contains(msg, "(") && strings.Contains(msg, ")") {
		head, _, _ := strings.Cut(msg, "(")
		if c, ok := conventional[strings.TrimSpace(head)]; ok {
			return c
		}
	}

	if c, ok := firstWord(msg); ok {
		return c
	}

	if utf8.RuneCountInString(msg) < shortMessage {
		return category.Chore
	}
	return category.Other
}

// firstWord returns the dictionary category of the first known word in msg
func firstWord(msg string) (category.Category, bool) {
	for _, f := range strings.Fields(msg) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if c, ok := dictionary[w]; ok {
			return c, true
		}
	}
	return "", false
}

// Normalize lower cases and trims a message
func Normalize(message string) string {
	s := strings.TrimSpace(message)
	if s == "" {
		return ""
	}
	// a Caser holds state so one is built per call
	return cases.Lower(language.Und).String(s)
}
