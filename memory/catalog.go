// Package memory derives "memory" facts from free-text user messages.
//
// Extraction is driven by a fixed catalog of first-person sentence
// categories. Each category keeps its add, remove and update patterns
// together; Extract is pure and Apply folds a Delta into a fact list.
package memory

import (
	"regexp"
	"strings"
)

// Category names a family of first-person statements.
type Category string

const (
	CategoryName        Category = "name"
	CategoryIdentity    Category = "identity"
	CategoryLikes       Category = "likes"
	CategoryRemember    Category = "remember"
	CategoryFavorite    Category = "favorite"
	CategoryNickname    Category = "nickname"
	CategoryLocation    Category = "location"
	CategoryOccupation  Category = "occupation"
	CategoryPronouns    Category = "pronouns"
	CategoryBirthday    Category = "birthday"
	CategoryPossessions Category = "possessions"
	CategoryWants       Category = "wants"
	CategoryNeeds       Category = "needs"
	CategoryGoal        Category = "goal"
)

// valueClause captures a fact value up to the first sentence terminator.
const valueClause = `([^.!?\n]+)`

// Rule is one catalog entry.
type Rule struct {
	Category Category

	// Phrase prefixes every fact added for this category.
	Phrase string
	// Match is the phrase returned as a remove matcher or update target.
	Match string

	Add    *regexp.Regexp
	Remove *regexp.Regexp
	Update *regexp.Regexp
}

type ruleSpec struct {
	category Category
	phrase   string
	match    string
	// lead is an optional non-captured lead-in between phrase and value.
	lead string
	// addOnly rules cannot be removed or updated by phrase.
	addOnly bool
}

var catalogSpecs = []ruleSpec{
	{category: CategoryName, phrase: "my name is", match: "my name"},
	{category: CategoryIdentity, phrase: "I am", match: "I am"},
	{category: CategoryLikes, phrase: "I like", match: "I like"},
	{category: CategoryRemember, phrase: "remember that", match: "remember", lead: `(?:that\s+)?`, addOnly: true},
	{category: CategoryFavorite, phrase: "my favorite", match: "my favorite"},
	{category: CategoryNickname, phrase: "call me", match: "call me"},
	{category: CategoryLocation, phrase: "I live in", match: "I live in"},
	{category: CategoryOccupation, phrase: "I work as", match: "I work as"},
	{category: CategoryPronouns, phrase: "my pronouns are", match: "my pronouns"},
	{category: CategoryBirthday, phrase: "birthday is", match: "birthday"},
	{category: CategoryPossessions, phrase: "I have", match: "I have"},
	{category: CategoryWants, phrase: "I want", match: "I want"},
	{category: CategoryNeeds, phrase: "I need", match: "I need"},
	{category: CategoryGoal, phrase: "my goal is", match: "my goal"},
}

// Catalog is the ordered rule list used by Extract.
var Catalog = buildCatalog(catalogSpecs)

func buildCatalog(specs []ruleSpec) []Rule {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		addPhrase := words(s.phrase)
		if s.category == CategoryRemember {
			addPhrase = words(s.match)
		}

		r := Rule{
			Category: s.category,
			Phrase:   s.phrase,
			Match:    s.match,
			Add:      regexp.MustCompile(`(?i)\b` + addPhrase + `\s+` + s.lead + valueClause),
		}
		if !s.addOnly {
			match := words(s.match)
			r.Remove = regexp.MustCompile(`(?i)\b(?:forget\s+(?:that\s+)?` + match + `\b[^.!?\n]*|(?:remove|delete|clear)\s+` + match + `\b)`)
			r.Update = regexp.MustCompile(`(?i)\b(?:update|change)\s+` + match + `(?:\s+(?:to|is)\s+|\s*:\s*)` + valueClause)
		}
		rules = append(rules, r)
	}
	return rules
}

// words turns a literal phrase into a pattern tolerant of repeated spaces.
func words(phrase string) string {
	parts := strings.Fields(phrase)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `\s+`)
}
