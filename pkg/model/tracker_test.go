package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plate(t *testing.T, attrs map[string]any) *Entity {
	t.Helper()
	e, err := NewEntity(plateSchemas()[0], attrs)
	require.NoError(t, err)
	return e
}

func TestFreshEntityIsClean(t *testing.T) {
	e := plate(t, map[string]any{"food": map[string]any{"veggies": []any{"carrots", "peas"}}})
	for _, p := range e.Schema().Properties() {
		assert.False(t, e.Changed(p.Name), p.Name)
	}
	assert.False(t, e.Dirty())
	assert.Empty(t, e.ChangedProperties())
	assert.Nil(t, e.Changes())
}

func TestUnknownProperty(t *testing.T) {
	_, err := NewEntity(plateSchemas()[0], map[string]any{"drink": "tea"})
	assert.Error(t, err)

	e := plate(t, nil)
	assert.Error(t, e.Set("drink", "tea"))
	assert.Nil(t, e.Get("drink"))
	assert.False(t, e.Changed("drink"))
}

func TestSetRoundTrip(t *testing.T) {
	e := plate(t, map[string]any{"food": "sushi"})

	require.NoError(t, e.Set("food", "burger"))
	require.NoError(t, e.Set("food", "pizza"))
	assert.True(t, e.Changed("food"))
	assert.Equal(t, []string{"food"}, e.ChangedProperties())
	assert.Equal(t, map[string]Change{"food": {Old: "sushi", New: "pizza"}}, e.Changes())

	require.NoError(t, e.Set("food", "sushi"))
	assert.False(t, e.Changed("food"))
	assert.False(t, e.Dirty())
}

func TestNestedInPlaceMutationIsDirty(t *testing.T) {
	e := plate(t, map[string]any{"food": map[string]any{"veggies": []any{"carrots", "peas"}}})

	food := e.Get("food").(map[string]any)
	food["veggies"] = append(food["veggies"].([]any), "beans")

	assert.True(t, e.Changed("food"))
	assert.True(t, e.Dirty())
	assert.Equal(t, map[string]any{"veggies": []any{"carrots", "peas"}}, e.Was("food"))
}

func TestNestedElementOverwriteIsDirty(t *testing.T) {
	e := plate(t, map[string]any{"food": map[string]any{"veggies": []any{"carrots", "peas"}}})

	e.Get("food").(map[string]any)["veggies"].([]any)[0] = "kale"
	assert.True(t, e.Changed("food"))
}

func TestDefaultIsSeededIntoSnapshot(t *testing.T) {
	e := plate(t, nil)
	assert.Equal(t, []any{}, e.Get("tags"))
	assert.False(t, e.Changed("tags"))

	require.NoError(t, e.Set("tags", append(e.Get("tags").([]any), "spicy")))
	assert.True(t, e.Changed("tags"))
	assert.Equal(t, []any{}, e.Was("tags"))
}

func TestDefaultsAreNotShared(t *testing.T) {
	s := plateSchemas()[0]
	a, err := NewEntity(s, nil)
	require.NoError(t, err)
	b, err := NewEntity(s, nil)
	require.NoError(t, err)

	require.NoError(t, a.Set("tags", append(a.Get("tags").([]any), "y")))
	assert.Equal(t, []any{}, b.Get("tags"))
	tags, _ := s.Property("tags")
	assert.Equal(t, []any{}, tags.Default)
}

func TestNotChangedSuppressesPendingChange(t *testing.T) {
	e := plate(t, map[string]any{"food": "sushi"})
	require.NoError(t, e.Set("food", "burger"))
	e.NotChanged("food")

	assert.False(t, e.Changed("food"))
	assert.Equal(t, "burger", e.Was("food"))

	require.NoError(t, e.Set("food", "ramen"))
	assert.True(t, e.Changed("food"))
}

func TestNotChangedTakesACopy(t *testing.T) {
	e := plate(t, map[string]any{"food": []any{"rice"}})
	require.NoError(t, e.Set("food", []any{"rice", "fish"}))
	e.NotChanged("food")

	food := e.Get("food").([]any)
	food[1] = "eel"
	assert.True(t, e.Changed("food"))
}

func TestResetAll(t *testing.T) {
	e := plate(t, map[string]any{"food": "sushi"})
	require.NoError(t, e.Set("food", map[string]any{"veggies": []any{"peas"}}))
	require.NoError(t, e.Set("tags", []any{"x"}))
	require.True(t, e.Dirty())

	e.Reset()
	assert.False(t, e.Dirty())
	assert.Equal(t, map[string]any{"veggies": []any{"peas"}}, e.Was("food"))

	e.Get("food").(map[string]any)["veggies"] = []any{"peas", "corn"}
	assert.Equal(t, []string{"food"}, e.ChangedProperties(), "changes are relative to the latest reset")
}

func TestWasReturnsIndependentCopy(t *testing.T) {
	e := plate(t, map[string]any{"food": []any{"rice"}})
	was := e.Was("food").([]any)
	was[0] = "bread"
	assert.False(t, e.Changed("food"))
	assert.Equal(t, []any{"rice"}, e.Was("food"))
}

func TestAttributesIsDeepCopy(t *testing.T) {
	e := plate(t, map[string]any{"food": map[string]any{"veggies": []any{"carrots"}}})
	attrs := e.Attributes()
	attrs["food"].(map[string]any)["veggies"] = []any{}
	assert.False(t, e.Dirty())
	assert.Contains(t, attrs, "tags")
}

func TestTrackerDirectly(t *testing.T) {
	s := NewSchema("note", Property{Name: "body", Kind: KindString, Default: ""})
	tr := NewTracker(s, map[string]any{"body": "hi", "ignored": true})

	assert.True(t, tr.Tracks("body"))
	assert.False(t, tr.Tracks("ignored"))
	assert.False(t, tr.IsAnyChanged())

	tr.Set("body", "bye")
	assert.True(t, tr.IsChanged("body"))
	assert.Equal(t, "hi", tr.PreviousValue("body"))

	tr.ResetAll()
	assert.False(t, tr.IsAnyChanged())
	assert.Equal(t, "bye", tr.PreviousValue("body"))
}

func TestLargeIntegerChangeIsDirty(t *testing.T) {
	e := plate(t, map[string]any{"food": int64(1) << 53})
	require.NoError(t, e.Set("food", int64(1)<<53+1))
	assert.True(t, e.Changed("food"))
	assert.True(t, e.Dirty())

	require.NoError(t, e.Set("food", int64(1)<<53))
	assert.False(t, e.Dirty())
}
