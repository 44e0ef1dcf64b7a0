package ui

import (
	"strings"
	"testing"

	"github.com/abelbrown/pokedex/internal/model"
)

func TestRenderCompare(t *testing.T) {
	a := model.Record{Name: "charizard", Types: []string{"fire", "flying"}, Stats: map[model.StatID]int{
		model.StatHP: 78, model.StatAttack: 84, model.StatSpeed: 100,
	}}
	b := model.Record{Name: "blastoise", Types: []string{"water"}, Stats: map[model.StatID]int{
		model.StatHP: 79, model.StatAttack: 83, model.StatDefense: 100,
	}}

	out := RenderCompare(a, b, 100)
	for _, want := range []string{"charizard vs blastoise", "Special Attack", "Total", "-1", "+1", "even: 2 stats each"} {
		if !strings.Contains(out, want) {
			t.Errorf("compare missing %q:\n%s", want, out)
		}
	}
}

func TestCompareVerdict(t *testing.T) {
	tests := []struct {
		left, right int
		want        string
	}{
		{4, 1, "a wins 4 of 6 stats"},
		{0, 2, "b wins 2 of 6 stats"},
		{3, 3, "even: 3 stats each"},
	}
	for _, tt := range tests {
		if got := compareVerdict("a", "b", tt.left, tt.right); got != tt.want {
			t.Errorf("compareVerdict(%d, %d) = %q, want %q", tt.left, tt.right, got, tt.want)
		}
	}
}
