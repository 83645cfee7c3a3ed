package craft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientScale(t *testing.T) {
	ing := Ingredient{ItemID: "carbon", Qty: 3}
	assert.Equal(t, Ingredient{ItemID: "carbon", Qty: 12}, ing.Scale(4))
	assert.Equal(t, Ingredient{ItemID: "carbon", Qty: 3}, ing, "scale must not mutate")
}

func TestIngredientCompare(t *testing.T) {
	cases := []struct {
		name string
		a, b Ingredient
		want CompareResult
	}{
		{"by id first", Ingredient{"carbon", 9}, Ingredient{"oxygen", 1}, Less},
		{"same id by qty", Ingredient{"carbon", 2}, Ingredient{"carbon", 5}, Less},
		{"equal", Ingredient{"carbon", 2}, Ingredient{"carbon", 2}, Equal},
		{"greater qty", Ingredient{"carbon", 7}, Ingredient{"carbon", 2}, More},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Compare(tc.b))
		})
	}
}

func TestIngredientListAdd(t *testing.T) {
	list := NewIngredientList()
	list.Add(Ingredient{ItemID: "carbon", Qty: 2})
	list.Add(Ingredient{ItemID: "oxygen", Qty: 1})
	list.Add(Ingredient{ItemID: "carbon", Qty: 3})

	assert.Equal(t, 2, list.Len())
	assert.Equal(t, 5, list.Qty("carbon"))
	assert.Equal(t, 1, list.Qty("oxygen"))
	assert.Equal(t, 0, list.Qty("ferrite"))

	// Items returns canonical id order.
	assert.Equal(t, []Ingredient{{"carbon", 5}, {"oxygen", 1}}, list.Items())
}

func TestIngredientListSub(t *testing.T) {
	t.Run("decrements existing entries only", func(t *testing.T) {
		list := NewIngredientList(Ingredient{"carbon", 5}, Ingredient{"oxygen", 2})
		rhs := NewIngredientList(Ingredient{"carbon", 3}, Ingredient{"ferrite", 10})
		list.Sub(rhs)

		assert.Equal(t, 2, list.Qty("carbon"))
		assert.Equal(t, 2, list.Qty("oxygen"))
		// ferrite was never in the list; subtraction must not introduce it.
		assert.False(t, list.Contains("ferrite"))
	})

	t.Run("entries can go negative", func(t *testing.T) {
		list := NewIngredientList(Ingredient{"carbon", 1})
		list.Sub(NewIngredientList(Ingredient{"carbon", 4}))
		assert.Equal(t, -3, list.Qty("carbon"))
	})
}

func TestIngredientListDiff(t *testing.T) {
	out := NewIngredientList(Ingredient{"gold", 2}, Ingredient{"silver", 1})
	in := NewIngredientList(Ingredient{"silver", 3})
	diff := out.Diff(in)

	assert.Equal(t, 2, diff.Qty("gold"))
	assert.Equal(t, -2, diff.Qty("silver"))
	// Diff leaves the receiver untouched.
	assert.Equal(t, 1, out.Qty("silver"))
}

func TestIngredientListScale(t *testing.T) {
	list := NewIngredientList(Ingredient{"carbon", 2}, Ingredient{"oxygen", 3})
	scaled := list.Scale(5)

	assert.Equal(t, 10, scaled.Qty("carbon"))
	assert.Equal(t, 15, scaled.Qty("oxygen"))
	assert.Equal(t, 2, list.Qty("carbon"), "scale returns a copy")
}

func TestIngredientListCompare(t *testing.T) {
	t.Run("pairwise prefix decides first", func(t *testing.T) {
		a := NewIngredientList(Ingredient{"carbon", 1})
		b := NewIngredientList(Ingredient{"oxygen", 1})
		assert.Equal(t, Less, a.Compare(b, LongerMore))
		assert.Equal(t, Less, a.Compare(b, LongerLess), "prefix order ignores the length rule")
	})

	t.Run("length breaks prefix ties", func(t *testing.T) {
		short := NewIngredientList(Ingredient{"carbon", 1})
		long := NewIngredientList(Ingredient{"carbon", 1}, Ingredient{"oxygen", 2})

		assert.Equal(t, Less, short.Compare(long, LongerMore))
		assert.Equal(t, More, short.Compare(long, LongerLess))
	})

	t.Run("equal lists", func(t *testing.T) {
		a := NewIngredientList(Ingredient{"carbon", 1}, Ingredient{"oxygen", 2})
		b := NewIngredientList(Ingredient{"oxygen", 2}, Ingredient{"carbon", 1})
		assert.Equal(t, Equal, a.Compare(b, LongerMore))
	})
}

func TestIngredientListEstimateValue(t *testing.T) {
	list := NewIngredientList(Ingredient{"carbon", 10}, Ingredient{"mystery", 1})
	values := map[string]float64{"carbon": 12.5}

	total, missing := list.EstimateValue(values)
	assert.InDelta(t, 125.0, total, 1e-9)
	assert.Equal(t, []string{"mystery"}, missing)
}

func TestIngredientListRemoveIf(t *testing.T) {
	list := NewIngredientList(Ingredient{"carbon", 0}, Ingredient{"oxygen", 2}, Ingredient{"gold", 0})
	list.RemoveIf(func(ing Ingredient) bool { return ing.Qty == 0 })

	require.Equal(t, 1, list.Len())
	assert.True(t, list.Contains("oxygen"))
}

func TestIngredientListString(t *testing.T) {
	list := NewIngredientList(Ingredient{"oxygen", 1}, Ingredient{"carbon", 2})
	assert.Equal(t, "carbon x2 + oxygen x1", list.String())
}
