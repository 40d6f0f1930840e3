package models

import (
	"reflect"
	"testing"
)

func TestRecentFamilyWindowPushEvicts(t *testing.T) {
	w := NewRecentFamilyWindow(3)
	for _, f := range []string{"a", "b", "c", "d"} {
		w.Push(f)
	}

	got := w.Families()
	want := []string{"d", "c", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Families() = %v, want %v (newest first)", got, want)
	}
	if w.Contains("a") {
		t.Error("oldest family should have been evicted")
	}
	if !w.Contains("d") {
		t.Error("newest family missing")
	}
	if w.Len() != 3 {
		t.Errorf("Len() = %d, want 3", w.Len())
	}
}

func TestRecentFamilyWindowDisabled(t *testing.T) {
	w := NewRecentFamilyWindow(0)
	w.Push("a")
	if w.Len() != 0 {
		t.Errorf("zero-size window should track nothing, got %d", w.Len())
	}
}

func TestRecentFamilyWindowRestore(t *testing.T) {
	w := NewRecentFamilyWindow(2)
	w.Restore([]string{"x", "y", "z"})
	if got := w.Families(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Restore should trim to the bound, got %v", got)
	}
}

func TestFilledCardWithText(t *testing.T) {
	card := FilledCard{ID: "t1", Text: "original", Family: "roast"}
	rewritten := card.WithText("rewritten")
	if rewritten.Text != "rewritten" || rewritten.ID != "t1" || rewritten.Family != "roast" {
		t.Errorf("WithText result = %+v", rewritten)
	}
	if card.Text != "original" {
		t.Error("WithText must not mutate the receiver")
	}
}

func TestTemplateEffectiveMaxWords(t *testing.T) {
	withBudget := Template{MaxWords: 18}
	if got := withBudget.EffectiveMaxWords(); got != 18 {
		t.Errorf("EffectiveMaxWords = %d, want 18", got)
	}
	without := Template{}
	if got := without.EffectiveMaxWords(); got != 100 {
		t.Errorf("default EffectiveMaxWords = %d, want 100", got)
	}
}
