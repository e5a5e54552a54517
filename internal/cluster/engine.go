package cluster

import (
	"context"
	"log/slog"

	"github.com/ryanbastic/go-cardsheet/internal/sheet"
)

// Engine answers cluster queries against a Board. Each query works on a
// snapshot taken under the board's read lock, so it never blocks writers
// for longer than the copy.
type Engine struct {
	board   *sheet.Board
	padding int
	logger  *slog.Logger
}

func NewEngine(board *sheet.Board, padding int, logger *slog.Logger) *Engine {
	return &Engine{board: board, padding: padding, logger: logger}
}

// Padding returns the default bounding box padding.
func (e *Engine) Padding() int { return e.padding }

// LayerClusters is the partition of one layer.
type LayerClusters struct {
	SheetID  string    `json:"sheet_id"`
	Layer    string    `json:"layer"`
	Clusters []Cluster `json:"clusters"`
}

// Snapshot copies a layer's placements. An empty sheetID selects the current
// sheet and an empty layer the sheet's current layer.
func (e *Engine) Snapshot(sheetID, layer string) (string, []sheet.Placement, error) {
	var snap []sheet.Placement
	err := e.board.View(func(tx *sheet.Tx) error {
		s, l, err := tx.Resolve(sheetID, layer)
		if err != nil {
			return err
		}
		sheetID = s.ID
		snap = l.Snapshot()
		return nil
	})
	return sheetID, snap, err
}

// CardCluster returns the cluster containing the card at seed.
func (e *Engine) CardCluster(sheetID, layer string, seed sheet.Position) ([]sheet.Placement, error) {
	sheetID, snap, err := e.Snapshot(sheetID, layer)
	if err != nil {
		return nil, err
	}
	return GetCardCluster(seed, snap, sheetID)
}

// Clusters partitions one layer.
func (e *Engine) Clusters(sheetID, layer string) ([]Cluster, error) {
	sheetID, snap, err := e.Snapshot(sheetID, layer)
	if err != nil {
		return nil, err
	}
	return Partition(sheetID, snap)
}

// BoundingBoxes returns the padded bounding box of every cluster on a layer.
// A negative padding selects the engine default.
func (e *Engine) BoundingBoxes(sheetID, layer string, padding int) (map[Key]BoundingBox, error) {
	if padding < 0 {
		padding = e.padding
	}
	sheetID, snap, err := e.Snapshot(sheetID, layer)
	if err != nil {
		return nil, err
	}
	return GetCardClusterBoundingBoxes(sheetID, snap, padding)
}

// ClusterBoard partitions every layer of every sheet. The context is
// checked between layers; on cancellation the layers finished so far are
// returned with the context error. A layer with overlapping cards is logged
// and skipped.
func (e *Engine) ClusterBoard(ctx context.Context) ([]LayerClusters, error) {
	type target struct{ sheetID, layer string }
	var targets []target
	e.board.View(func(tx *sheet.Tx) error {
		for _, s := range tx.Sheets() {
			for _, l := range s.Layers() {
				targets = append(targets, target{s.ID, l.Name()})
			}
		}
		return nil
	})

	out := make([]LayerClusters, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		clusters, err := e.Clusters(t.sheetID, t.layer)
		if err != nil {
			e.logger.Warn("cluster layer failed", "sheet", t.sheetID, "layer", t.layer, "error", err)
			continue
		}
		out = append(out, LayerClusters{SheetID: t.sheetID, Layer: t.layer, Clusters: clusters})
	}
	return out, nil
}
