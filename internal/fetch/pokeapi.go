package fetch

import (
	"slices"

	"github.com/abelbrown/pokedex/internal/model"
)

// pageResponse is the body of GET {base}/pokemon?offset=&limit=.
type pageResponse struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []namedAPIItem `json:"results"`
}

type namedAPIItem struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// recordResponse is the subset of GET {base}/pokemon/{name} we use.
type recordResponse struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Height  int        `json:"height"`
	Weight  int        `json:"weight"`
	Types   []typeSlot `json:"types"`
	Stats   []baseStat `json:"stats"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
		FrontShiny   *string `json:"front_shiny"`
	} `json:"sprites"`
}

type typeSlot struct {
	Slot int          `json:"slot"`
	Type namedAPIItem `json:"type"`
}

type baseStat struct {
	BaseStat int          `json:"base_stat"`
	Effort   int          `json:"effort"`
	Stat     namedAPIItem `json:"stat"`
}

func (p pageResponse) summaries() []model.Summary {
	out := make([]model.Summary, 0, len(p.Results))
	for _, r := range p.Results {
		if r.Name == "" {
			continue
		}
		out = append(out, model.Summary{Name: r.Name, Locator: r.URL})
	}
	return out
}

// record converts the wire form. Stat names are decoded here once;
// unrecognised stats are dropped.
func (r recordResponse) record() model.Record {
	types := slices.Clone(r.Types)
	slices.SortStableFunc(types, func(a, b typeSlot) int {
		return a.Slot - b.Slot
	})

	rec := model.Record{
		ID:     r.ID,
		Name:   r.Name,
		Height: r.Height,
		Weight: r.Weight,
		Stats:  make(map[model.StatID]int, len(r.Stats)),
		Types:  make([]string, 0, len(types)),
	}
	for _, t := range types {
		rec.Types = append(rec.Types, t.Type.Name)
	}
	for _, s := range r.Stats {
		if id, ok := model.ParseStatID(s.Stat.Name); ok {
			rec.Stats[id] = s.BaseStat
		}
	}
	if r.Sprites.FrontDefault != nil {
		rec.Sprite = *r.Sprites.FrontDefault
	}
	return rec
}
