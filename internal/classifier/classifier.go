// Package classifier turns free-form chat text into a transaction type and a
// catalog category using ordered keyword rules. It never fails: every input
// ends on a fallback category.
package classifier

import (
	"strings"

	"pocketbot/internal/catalog"
	"pocketbot/internal/core"
)

// Rule names the step that decided a classification.
type Rule string

const (
	RuleRefundPhrase  Rule = "refund-phrase"
	RuleMarkerOrder   Rule = "marker-order"
	RuleKeyword       Rule = "keyword"
	RuleDirectMapping Rule = "direct-mapping"
	RuleSynonym       Rule = "synonym"
	RuleName          Rule = "name"
	RuleDefault       Rule = "default"
)

// Trace explains how a classification was reached.
type Trace struct {
	Input  string
	Result core.Classification

	// ForcedType is empty when neither the refund heuristic nor the keyword
	// scan fired.
	ForcedType core.TransactionType
	ForcedBy   Rule
	ForcedTerm string

	Rule Rule
	Term string
}

// Classifier is safe for concurrent use.
type Classifier struct {
	cat   *catalog.Catalog
	rules catalog.Rules
	names map[string][2]string
}

func New(cat *catalog.Catalog) *Classifier {
	c := &Classifier{
		cat:   cat,
		rules: cat.Rules(),
		names: make(map[string][2]string),
	}
	for _, d := range cat.All() {
		c.names[d.ID] = [2]string{catalog.Normalize(d.PrimaryName), catalog.Normalize(d.AltName)}
	}
	return c
}

// Classify returns the (type, category) guess for text.
func (c *Classifier) Classify(text string) core.Classification {
	return c.Explain(text).Result
}

// Explain classifies text and reports which rule decided the outcome.
func (c *Classifier) Explain(text string) Trace {
	t := catalog.Normalize(text)
	tr := Trace{Input: t}

	tr.ForcedType, tr.ForcedBy, tr.ForcedTerm = c.forceType(t)

	if d, term, ok := c.directMapping(t, tr.ForcedType); ok {
		return tr.finish(d, RuleDirectMapping, term)
	}

	subset := c.subset(tr.ForcedType)
	if d, term, ok := matchSynonym(t, subset); ok {
		return tr.finish(d, RuleSynonym, term)
	}
	if d, term, ok := c.matchName(t, subset); ok {
		return tr.finish(d, RuleName, term)
	}
	return tr.finish(c.cat.Fallback(tr.ForcedType), RuleDefault, "")
}

func (tr Trace) finish(d core.CategoryDescriptor, rule Rule, term string) Trace {
	tr.Result = core.Classification{Type: d.Type, CategoryID: d.ID, CategoryName: d.PrimaryName}
	tr.Rule = rule
	tr.Term = term
	return tr
}

// forceType runs the refund heuristic and then the keyword scan.
func (c *Classifier) forceType(t string) (core.TransactionType, Rule, string) {
	if p, ok := firstContained(t, c.rules.RefundExpensePhrases); ok {
		return core.Expense, RuleRefundPhrase, p
	}
	if p, ok := firstContained(t, c.rules.RefundIncomePhrases); ok {
		return core.Income, RuleRefundPhrase, p
	}

	ret, retAt := earliest(t, c.rules.ReturnMarkers)
	party, partyAt := earliest(t, c.rules.ThirdPartyMarkers)
	if retAt >= 0 && partyAt >= 0 && retAt != partyAt {
		if partyAt < retAt {
			return core.Income, RuleMarkerOrder, party + " > " + ret
		}
		return core.Expense, RuleMarkerOrder, ret + " > " + party
	}

	in, inAt := rightmost(t, c.rules.IncomeKeywords)
	ex, exAt := rightmost(t, c.rules.ExpenseKeywords)
	switch {
	case inAt < 0 && exAt < 0:
		return "", "", ""
	case exAt < 0:
		return core.Income, RuleKeyword, in
	case inAt < 0:
		return core.Expense, RuleKeyword, ex
	case inAt > exAt:
		return core.Income, RuleKeyword, in
	case exAt > inAt:
		return core.Expense, RuleKeyword, ex
	case len(in) > len(ex):
		return core.Income, RuleKeyword, in
	default:
		return core.Expense, RuleKeyword, ex
	}
}

// directMapping returns the first configured mapping contained in t. A
// type-scoped mapping needs that type to be forced; an unscoped one must not
// contradict the forced type.
func (c *Classifier) directMapping(t string, forced core.TransactionType) (core.CategoryDescriptor, string, bool) {
	for _, m := range c.rules.DirectMappings {
		if !strings.Contains(t, m.Contains) {
			continue
		}
		if m.Type != "" && m.Type != forced {
			continue
		}
		d, ok := c.cat.Lookup(m.CategoryID)
		if !ok || (forced != "" && d.Type != forced) {
			continue
		}
		return d, m.Contains, true
	}
	return core.CategoryDescriptor{}, "", false
}

func (c *Classifier) subset(forced core.TransactionType) []core.CategoryDescriptor {
	if forced == "" {
		return c.cat.All()
	}
	return c.cat.ByType(forced)
}

// matchSynonym returns the first descriptor in catalog order with a synonym
// contained in t. The reported term is that descriptor's longest match.
func matchSynonym(t string, subset []core.CategoryDescriptor) (core.CategoryDescriptor, string, bool) {
	for _, d := range subset {
		if term := longestContained(t, d.Synonyms); term != "" {
			return d, term, true
		}
	}
	return core.CategoryDescriptor{}, "", false
}

// matchName is matchSynonym over primary and alternate names.
func (c *Classifier) matchName(t string, subset []core.CategoryDescriptor) (core.CategoryDescriptor, string, bool) {
	for _, d := range subset {
		names := c.names[d.ID]
		if term := longestContained(t, names[:]); term != "" {
			return d, term, true
		}
	}
	return core.CategoryDescriptor{}, "", false
}

func longestContained(t string, terms []string) string {
	best := ""
	for _, s := range terms {
		if s != "" && len(s) > len(best) && strings.Contains(t, s) {
			best = s
		}
	}
	return best
}

func firstContained(t string, terms []string) (string, bool) {
	for _, p := range terms {
		if strings.Contains(t, p) {
			return p, true
		}
	}
	return "", false
}

// earliest returns the term whose first occurrence starts leftmost, or -1.
func earliest(t string, terms []string) (string, int) {
	term, at := "", -1
	for _, m := range terms {
		i := strings.Index(t, m)
		if i < 0 {
			continue
		}
		if at < 0 || i < at || (i == at && len(m) > len(term)) {
			term, at = m, i
		}
	}
	return term, at
}

// rightmost returns the term whose last occurrence starts furthest right, or
// -1. Equal positions prefer the longer term.
func rightmost(t string, terms []string) (string, int) {
	term, at := "", -1
	for _, k := range terms {
		i := strings.LastIndex(t, k)
		if i < 0 {
			continue
		}
		if i > at || (i == at && len(k) > len(term)) {
			term, at = k, i
		}
	}
	return term, at
}
