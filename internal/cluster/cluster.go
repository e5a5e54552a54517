// Package cluster groups the cards of a layer into 4-connected clusters and
// computes their bounding boxes.
//
// Two cards are adjacent when their positions differ by exactly one unit on
// a single axis; diagonal neighbours are not connected. Traversal is
// breadth-first and visits neighbours in the order up (y-1), right (x+1),
// down (y+1), left (x-1), so a fixed layer always yields the same sequence.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/ryanbastic/go-cardsheet/internal/metrics"
	"github.com/ryanbastic/go-cardsheet/internal/sheet"
)

// ErrInvalidPosition is returned when two cards of a layer snapshot claim
// the same position. The whole query fails.
var ErrInvalidPosition = errors.New("invalid position: two cards share a cell")

// Key identifies a cluster by its minimal member position (lowest Y, then
// lowest X). It is stable across calls on an unchanged layer.
type Key = sheet.Position

// BoundingBox is an axis-aligned box given by its inclusive corners.
type BoundingBox struct {
	TopLeft     sheet.Position `json:"top_left"`
	BottomRight sheet.Position `json:"bottom_right"`
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p sheet.Position) bool {
	return p.X >= b.TopLeft.X && p.X <= b.BottomRight.X &&
		p.Y >= b.TopLeft.Y && p.Y <= b.BottomRight.Y
}

// Pad grows the box by n cells on every side. Corners saturate at the
// ends of the int range instead of wrapping.
func (b BoundingBox) Pad(n int) BoundingBox {
	n = max(n, 0)
	return BoundingBox{
		TopLeft:     sheet.Position{X: subSat(b.TopLeft.X, n), Y: subSat(b.TopLeft.Y, n)},
		BottomRight: sheet.Position{X: addSat(b.BottomRight.X, n), Y: addSat(b.BottomRight.Y, n)},
	}
}

func addSat(a, n int) int {
	if a > math.MaxInt-n {
		return math.MaxInt
	}
	return a + n
}

func subSat(a, n int) int {
	if a < math.MinInt+n {
		return math.MinInt
	}
	return a - n
}

// Cluster is a maximal set of connected cards.
type Cluster struct {
	Key Key `json:"key"`
	// Members are in discovery order starting from the card at Key.
	Members []sheet.Placement `json:"members"`
	// Bounds is the tight box around the members, without padding.
	Bounds BoundingBox `json:"bounds"`
}

var directions = [4]sheet.Position{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}

// GetCardCluster returns every card reachable from seed, in discovery order.
// A card with no neighbours yields a single-element result.
func GetCardCluster(seed sheet.Position, layer []sheet.Placement, sheetID string) ([]sheet.Placement, error) {
	start := time.Now()
	defer func() { metrics.ObserveClusterQuery("card_cluster", time.Since(start)) }()

	grid, err := indexLayer(sheetID, layer)
	if err != nil {
		return nil, err
	}
	if _, ok := grid[seed]; !ok {
		return nil, fmt.Errorf("sheet %s: %w: no card at %s", sheetID, sheet.ErrCardNotFound, seed)
	}
	return traverse(seed, grid, make(map[sheet.Position]bool, len(grid))), nil
}

// Partition splits a layer into clusters. Every card belongs to exactly one
// cluster; clusters are returned ordered by key.
func Partition(sheetID string, layer []sheet.Placement) ([]Cluster, error) {
	start := time.Now()
	defer func() { metrics.ObserveClusterQuery("partition", time.Since(start)) }()

	clusters, err := partition(sheetID, layer)
	if err != nil {
		return nil, err
	}
	metrics.AddClusters("partition", len(clusters))
	return clusters, nil
}

// GetCardClusterBoundingBoxes partitions a layer and returns each cluster's
// bounding box grown by padding cells. Negative padding is treated as zero.
// An empty layer yields an empty map.
func GetCardClusterBoundingBoxes(sheetID string, layer []sheet.Placement, padding int) (map[Key]BoundingBox, error) {
	start := time.Now()
	defer func() { metrics.ObserveClusterQuery("bounding_boxes", time.Since(start)) }()

	clusters, err := partition(sheetID, layer)
	if err != nil {
		return nil, err
	}
	metrics.AddClusters("bounding_boxes", len(clusters))
	out := make(map[Key]BoundingBox, len(clusters))
	for _, c := range clusters {
		out[c.Key] = c.Bounds.Pad(padding)
	}
	return out, nil
}

func partition(sheetID string, layer []sheet.Placement) ([]Cluster, error) {
	grid, err := indexLayer(sheetID, layer)
	if err != nil {
		return nil, err
	}

	ordered := slices.Clone(layer)
	slices.SortFunc(ordered, func(a, b sheet.Placement) int {
		switch {
		case a.Position.Less(b.Position):
			return -1
		case b.Position.Less(a.Position):
			return 1
		}
		return 0
	})

	// Seeds are taken in row-major order, so each seed is the minimal
	// position of its cluster.
	visited := make(map[sheet.Position]bool, len(grid))
	var clusters []Cluster
	for _, p := range ordered {
		if visited[p.Position] {
			continue
		}
		members := traverse(p.Position, grid, visited)
		clusters = append(clusters, Cluster{
			Key:     p.Position,
			Members: members,
			Bounds:  bounds(members),
		})
	}
	return clusters, nil
}

func indexLayer(sheetID string, layer []sheet.Placement) (map[sheet.Position]sheet.Placement, error) {
	grid := make(map[sheet.Position]sheet.Placement, len(layer))
	for _, p := range layer {
		if other, ok := grid[p.Position]; ok {
			metrics.InvalidLayer()
			return nil, fmt.Errorf("sheet %s: %w: %q and %q at %s",
				sheetID, ErrInvalidPosition, other.RowID, p.RowID, p.Position)
		}
		grid[p.Position] = p
	}
	return grid, nil
}

// traverse runs a breadth-first search from seed, marking cards in visited.
func traverse(seed sheet.Position, grid map[sheet.Position]sheet.Placement, visited map[sheet.Position]bool) []sheet.Placement {
	queue := []sheet.Position{seed}
	visited[seed] = true
	var members []sheet.Placement
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		members = append(members, grid[pos])
		for _, d := range directions {
			next, ok := pos.Step(d)
			if !ok || visited[next] {
				continue
			}
			if _, ok := grid[next]; !ok {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return members
}

func bounds(members []sheet.Placement) BoundingBox {
	b := BoundingBox{TopLeft: members[0].Position, BottomRight: members[0].Position}
	for _, m := range members[1:] {
		b.TopLeft.X = min(b.TopLeft.X, m.Position.X)
		b.TopLeft.Y = min(b.TopLeft.Y, m.Position.Y)
		b.BottomRight.X = max(b.BottomRight.X, m.Position.X)
		b.BottomRight.Y = max(b.BottomRight.Y, m.Position.Y)
	}
	return b
}
