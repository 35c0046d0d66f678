package chart

import (
	"slices"
	"sort"
)

// Select keeps the perDiet fastest animals of each diet and returns them
// merged, fastest first. Ties keep input order.
func Select(animals []Animal, perDiet int) []Animal {
	var out []Animal
	for _, d := range Diets {
		var group []Animal
		for _, a := range animals {
			if a.Diet == d {
				group = append(group, a)
			}
		}
		sortBySpeed(group)
		if len(group) > perDiet {
			group = group[:perDiet]
		}
		out = append(out, group...)
	}

	sortBySpeed(out)
	return out
}

// MaxSpeed returns the highest speed in animals, or 0 for none.
func MaxSpeed(animals []Animal) float64 {
	if len(animals) == 0 {
		return 0
	}
	return slices.MaxFunc(animals, func(a, b Animal) int {
		switch {
		case a.Speed < b.Speed:
			return -1
		case a.Speed > b.Speed:
			return 1
		}
		return 0
	}).Speed
}

func sortBySpeed(animals []Animal) {
	sort.SliceStable(animals, func(i, j int) bool {
		return animals[i].Speed > animals[j].Speed
	})
}
