package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbot/internal/catalog"
	"pocketbot/internal/classifier"
	"pocketbot/internal/core"
)

func expense(id, name string) core.UserCategory {
	return core.UserCategory{ID: id, UserID: "u1", Name: name, Type: core.Expense}
}

func income(id, name string) core.UserCategory {
	return core.UserCategory{ID: id, UserID: "u1", Name: name, Type: core.Income}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "phoneinternet", Normalize(" Phone / Internet "))
	assert.Equal(t, "อาหารเครื่องดื่ม", Normalize("อาหาร/เครื่องดื่ม"))
	assert.Equal(t, "foodanddrinks", Normalize("Food-and_Drinks!"))
	assert.Equal(t, "", Normalize(" -/()· "))
}

func TestMatchSynonymScenario(t *testing.T) {
	cat := catalog.Default()
	cl := classifier.New(cat).Classify("taxi")
	require.Equal(t, "transport", cl.CategoryID)

	got, ok := New(cat).Match(cl, "taxi", []core.UserCategory{
		expense("1", "Food"),
		expense("2", "Transport"),
	})
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)
}

func TestMatch(t *testing.T) {
	cat := catalog.Default()
	m := New(cat)
	food, _ := cat.Lookup("food")
	foodCl := core.Classification{Type: core.Expense, CategoryID: food.ID, CategoryName: food.PrimaryName}
	othersCl := core.Classification{Type: core.Expense, CategoryID: "others", CategoryName: "อื่นๆ"}

	tests := []struct {
		name   string
		cl     core.Classification
		desc   string
		cats   []core.UserCategory
		wantID string
	}{
		{
			name: "exact beats higher fuzzy score",
			cl:   foodCl,
			desc: "อาหารกลางวัน",
			cats: []core.UserCategory{expense("a", "อาหาร"), expense("b", "อาหาร / เครื่องดื่ม")},
			wantID: "b",
		},
		{
			name:   "exact requires same type",
			cl:     foodCl,
			desc:   "x",
			cats:   []core.UserCategory{income("a", "อาหาร/เครื่องดื่ม"), expense("b", "อาหาร/เครื่องดื่ม มื้อเย็น")},
			wantID: "b",
		},
		{
			name:   "description contains name",
			cl:     othersCl,
			desc:   "netflix 399",
			cats:   []core.UserCategory{expense("a", "Shopping"), expense("b", "Netflix")},
			wantID: "b",
		},
		{
			name:   "restricted type first",
			cl:     othersCl,
			desc:   "gift shop",
			cats:   []core.UserCategory{income("a", "Gift"), expense("b", "Shop")},
			wantID: "b",
		},
		{
			name:   "widened when restricted pass is empty",
			cl:     othersCl,
			desc:   "gift for mom",
			cats:   []core.UserCategory{income("a", "Gift"), expense("b", "Shop")},
			wantID: "a",
		},
		{
			name:   "tie prefers longer name",
			cl:     othersCl,
			desc:   "grab food",
			cats:   []core.UserCategory{expense("a", "Grab"), expense("b", "Grab Food")},
			wantID: "b",
		},
		{
			name:   "full tie keeps user order",
			cl:     othersCl,
			desc:   "abcd wxyz",
			cats:   []core.UserCategory{expense("a", "abcd"), expense("b", "wxyz")},
			wantID: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.cl, tt.desc, tt.cats)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestMatchNotFound(t *testing.T) {
	cat := catalog.Default()
	m := New(cat)
	cl := core.Classification{Type: core.Expense, CategoryID: "food", CategoryName: "อาหาร/เครื่องดื่ม"}

	_, ok := m.Match(cl, "coffee", nil)
	assert.False(t, ok)

	_, ok = m.Match(cl, "coffee", []core.UserCategory{expense("a", "Rent"), income("b", "Salary")})
	assert.False(t, ok)

	// separator-only names normalize to empty and never match
	_, ok = m.Match(cl, "coffee -", []core.UserCategory{expense("a", " - ")})
	assert.False(t, ok)
}

func TestMatchUnknownCategoryID(t *testing.T) {
	m := New(catalog.Default())
	got, ok := m.Match(core.Classification{Type: core.Expense, CategoryID: "gone", CategoryName: "Gone"},
		"gone fishing", []core.UserCategory{expense("a", "Gone")})
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
}
