// Package catalog holds the built-in category descriptors and the keyword
// rules the classifier runs on. A Catalog is built once and never mutated.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"pocketbot/internal/core"
)

// Catalog is an immutable, validated set of category descriptors plus the
// classification rules merged from defaults and overrides.
type Catalog struct {
	descriptors []core.CategoryDescriptor
	byID        map[string]int
	rules       Rules
}

// Rules are the keyword lists consulted by the classifier. All strings are
// normalized at load.
type Rules struct {
	IncomeKeywords       []string
	ExpenseKeywords      []string
	RefundIncomePhrases  []string
	RefundExpensePhrases []string
	ReturnMarkers        []string
	ThirdPartyMarkers    []string
	DirectMappings       []DirectMapping
}

// DirectMapping sends any text containing Contains straight to CategoryID.
// When Type is set the mapping only applies if the classifier forced that type.
type DirectMapping struct {
	Contains   string
	CategoryID string
	Type       core.TransactionType
}

var ErrInvalidCatalog = errors.New("invalid catalog")

// Normalize lower-cases and trims s. Catalog strings and classifier input
// share this normalization.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Default returns the built-in catalog with no overrides applied.
func Default() *Catalog {
	c, err := New(defaultDescriptors(), defaultRules())
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// Load builds the built-in catalog merged with o. A nil o yields Default().
func Load(o *Overrides) (*Catalog, error) {
	rules := defaultRules()
	if o != nil {
		o.apply(&rules)
	}
	return New(defaultDescriptors(), rules)
}

// New validates descriptors and rules and returns the resulting catalog.
func New(descriptors []core.CategoryDescriptor, rules Rules) (*Catalog, error) {
	c := &Catalog{
		descriptors: make([]core.CategoryDescriptor, 0, len(descriptors)),
		byID:        make(map[string]int, len(descriptors)),
	}

	var problems []string
	for i, d := range descriptors {
		d.ID = Normalize(d.ID)
		d.PrimaryName = strings.TrimSpace(d.PrimaryName)
		d.AltName = strings.TrimSpace(d.AltName)
		d.Icon = strings.TrimSpace(d.Icon)
		d.Synonyms = normalizeList(d.Synonyms)

		switch {
		case d.ID == "":
			problems = append(problems, fmt.Sprintf("descriptor %d: empty id", i))
			continue
		case !d.Type.Valid():
			problems = append(problems, fmt.Sprintf("descriptor %q: invalid type %q", d.ID, d.Type))
			continue
		case d.PrimaryName == "":
			problems = append(problems, fmt.Sprintf("descriptor %q: empty primary name", d.ID))
			continue
		}
		if _, dup := c.byID[d.ID]; dup {
			problems = append(problems, fmt.Sprintf("descriptor %q: duplicate id", d.ID))
			continue
		}
		c.byID[d.ID] = len(c.descriptors)
		c.descriptors = append(c.descriptors, d)
	}

	for id, typ := range map[string]core.TransactionType{DefaultIncomeID: core.Income, DefaultExpenseID: core.Expense} {
		d, ok := c.lookup(id)
		if !ok {
			problems = append(problems, fmt.Sprintf("fallback category %q missing", id))
		} else if d.Type != typ {
			problems = append(problems, fmt.Sprintf("fallback category %q must be %s", id, typ))
		}
	}

	c.rules = Rules{
		IncomeKeywords:       normalizeList(rules.IncomeKeywords),
		ExpenseKeywords:      normalizeList(rules.ExpenseKeywords),
		RefundIncomePhrases:  normalizeList(rules.RefundIncomePhrases),
		RefundExpensePhrases: normalizeList(rules.RefundExpensePhrases),
		ReturnMarkers:        normalizeList(rules.ReturnMarkers),
		ThirdPartyMarkers:    normalizeList(rules.ThirdPartyMarkers),
	}
	for i, m := range rules.DirectMappings {
		m.Contains = Normalize(m.Contains)
		m.CategoryID = Normalize(m.CategoryID)
		if m.Contains == "" {
			problems = append(problems, fmt.Sprintf("direct mapping %d: empty contains", i))
			continue
		}
		if m.Type != "" && !m.Type.Valid() {
			problems = append(problems, fmt.Sprintf("direct mapping %q: invalid type %q", m.Contains, m.Type))
			continue
		}
		d, ok := c.lookup(m.CategoryID)
		if !ok {
			problems = append(problems, fmt.Sprintf("direct mapping %q: unknown category %q", m.Contains, m.CategoryID))
			continue
		}
		if m.Type != "" && d.Type != m.Type {
			problems = append(problems, fmt.Sprintf("direct mapping %q: category %q is not %s", m.Contains, d.ID, m.Type))
			continue
		}
		c.rules.DirectMappings = append(c.rules.DirectMappings, m)
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return nil, fmt.Errorf("%w:\n- %s", ErrInvalidCatalog, strings.Join(problems, "\n- "))
	}
	return c, nil
}

// Lookup returns the descriptor with the given id.
func (c *Catalog) Lookup(id string) (core.CategoryDescriptor, bool) {
	d, ok := c.lookup(Normalize(id))
	if !ok {
		return core.CategoryDescriptor{}, false
	}
	return clone(d), true
}

// ByType returns the descriptors of one type in catalog order.
func (c *Catalog) ByType(t core.TransactionType) []core.CategoryDescriptor {
	out := make([]core.CategoryDescriptor, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		if d.Type == t {
			out = append(out, clone(d))
		}
	}
	return out
}

// All returns every descriptor in catalog order.
func (c *Catalog) All() []core.CategoryDescriptor {
	out := make([]core.CategoryDescriptor, len(c.descriptors))
	for i, d := range c.descriptors {
		out[i] = clone(d)
	}
	return out
}

// Essentials returns the descriptors seeded as pockets for a new user.
func (c *Catalog) Essentials() []core.CategoryDescriptor {
	out := make([]core.CategoryDescriptor, 0, len(essentialIDs))
	for _, id := range essentialIDs {
		if d, ok := c.lookup(id); ok {
			out = append(out, clone(d))
		}
	}
	return out
}

// Rules returns a copy of the merged classification rules.
func (c *Catalog) Rules() Rules {
	return Rules{
		IncomeKeywords:       slices.Clone(c.rules.IncomeKeywords),
		ExpenseKeywords:      slices.Clone(c.rules.ExpenseKeywords),
		RefundIncomePhrases:  slices.Clone(c.rules.RefundIncomePhrases),
		RefundExpensePhrases: slices.Clone(c.rules.RefundExpensePhrases),
		ReturnMarkers:        slices.Clone(c.rules.ReturnMarkers),
		ThirdPartyMarkers:    slices.Clone(c.rules.ThirdPartyMarkers),
		DirectMappings:       slices.Clone(c.rules.DirectMappings),
	}
}

// Fallback returns the default descriptor for the given forced type.
func (c *Catalog) Fallback(forced core.TransactionType) core.CategoryDescriptor {
	if forced == core.Income {
		d, _ := c.Lookup(DefaultIncomeID)
		return d
	}
	d, _ := c.Lookup(DefaultExpenseID)
	return d
}

func (c *Catalog) lookup(id string) (core.CategoryDescriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return core.CategoryDescriptor{}, false
	}
	return c.descriptors[i], true
}

func clone(d core.CategoryDescriptor) core.CategoryDescriptor {
	d.Synonyms = slices.Clone(d.Synonyms)
	return d
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = Normalize(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
