package cluster

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ryanbastic/go-cardsheet/internal/sheet"
)

const gridSide = 8

// layerFromCells turns cell indexes of an 8x8 grid into a layer with
// unique positions.
func layerFromCells(cells []int) []sheet.Placement {
	seen := make(map[int]bool, len(cells))
	var layer []sheet.Placement
	for _, c := range cells {
		if seen[c] {
			continue
		}
		seen[c] = true
		layer = append(layer, at(c%gridSide, c/gridSide))
	}
	return layer
}

func adjacent(a, b sheet.Position) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return (dx == 0 && (dy == 1 || dy == -1)) || (dy == 0 && (dx == 1 || dx == -1))
}

func TestProperty_Partition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	cells := gen.SliceOf(gen.IntRange(0, gridSide*gridSide-1))

	properties.Property("every card lands in exactly one cluster", prop.ForAll(
		func(cells []int) bool {
			layer := layerFromCells(cells)
			clusters, err := Partition("s", layer)
			if err != nil {
				return false
			}
			count := make(map[sheet.Position]int)
			for _, c := range clusters {
				for _, m := range c.Members {
					count[m.Position]++
				}
			}
			if len(count) != len(layer) {
				return false
			}
			for _, n := range count {
				if n != 1 {
					return false
				}
			}
			return true
		},
		cells,
	))

	properties.Property("cards in different clusters are never adjacent", prop.ForAll(
		func(cells []int) bool {
			clusters, err := Partition("s", layerFromCells(cells))
			if err != nil {
				return false
			}
			for i := range clusters {
				for j := i + 1; j < len(clusters); j++ {
					for _, a := range clusters[i].Members {
						for _, b := range clusters[j].Members {
							if adjacent(a.Position, b.Position) {
								return false
							}
						}
					}
				}
			}
			return true
		},
		cells,
	))

	properties.Property("key is the minimal member and bounds are tight", prop.ForAll(
		func(cells []int) bool {
			clusters, err := Partition("s", layerFromCells(cells))
			if err != nil {
				return false
			}
			for _, c := range clusters {
				var touchL, touchR, touchT, touchB bool
				for _, m := range c.Members {
					if m.Position.Less(c.Key) || !c.Bounds.Contains(m.Position) {
						return false
					}
					touchL = touchL || m.Position.X == c.Bounds.TopLeft.X
					touchR = touchR || m.Position.X == c.Bounds.BottomRight.X
					touchT = touchT || m.Position.Y == c.Bounds.TopLeft.Y
					touchB = touchB || m.Position.Y == c.Bounds.BottomRight.Y
				}
				if !touchL || !touchR || !touchT || !touchB {
					return false
				}
			}
			return true
		},
		cells,
	))

	properties.Property("GetCardCluster from any member returns its cluster", prop.ForAll(
		func(cells []int) bool {
			layer := layerFromCells(cells)
			clusters, err := Partition("s", layer)
			if err != nil {
				return false
			}
			for _, c := range clusters {
				for _, m := range c.Members {
					got, err := GetCardCluster(m.Position, layer, "s")
					if err != nil || len(got) != len(c.Members) {
						return false
					}
				}
			}
			return true
		},
		cells,
	))

	properties.TestingRun(t)
}
