// Package workspace coordinates the board, the actors that produce card rows
// and the optional persistence and trigger layers behind them.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ryanbastic/go-cardsheet/internal/actor"
	"github.com/ryanbastic/go-cardsheet/internal/cluster"
	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/metrics"
	"github.com/ryanbastic/go-cardsheet/internal/sheet"
	"github.com/ryanbastic/go-cardsheet/internal/storage"
	"github.com/ryanbastic/go-cardsheet/internal/trigger"
)

// Card is a placed card together with the row that backs it.
type Card struct {
	SheetID  string             `json:"sheet_id"`
	Layer    string             `json:"layer"`
	Position sheet.Position     `json:"position"`
	Entry    *dataset.DataEntry `json:"entry"`
}

// Service is the entry point for every card and sheet operation. Mutations
// run inside Board.Exclusive, so the board, the dataset store and the entry
// store change together; cluster queries go through the engine's snapshots.
type Service struct {
	board    *sheet.Board
	datasets *dataset.Store
	actors   *actor.Registry
	engine   *cluster.Engine
	entries  storage.EntryStore
	notifier *trigger.Notifier
	logger   *slog.Logger
}

func New(board *sheet.Board, datasets *dataset.Store, actors *actor.Registry, engine *cluster.Engine, logger *slog.Logger) *Service {
	return &Service{
		board:    board,
		datasets: datasets,
		actors:   actors,
		engine:   engine,
		logger:   logger,
	}
}

// WithEntryStore enables write-through persistence of placed cards.
func (s *Service) WithEntryStore(es storage.EntryStore) *Service {
	s.entries = es
	return s
}

// WithNotifier sends entry events to subscribed plugins after each mutation.
func (s *Service) WithNotifier(n *trigger.Notifier) *Service {
	s.notifier = n
	return s
}

// CreateCard asks the actor for kind to produce a row and places it at pos.
// An empty rowID is replaced by a generated one. If the card cannot be
// placed or persisted, the row is taken back out of its DataSet.
func (s *Service) CreateCard(ctx context.Context, sheetID, layer, kind, rowID, args string, pos sheet.Position) (*Card, error) {
	a, err := s.actors.Actor(kind)
	if err != nil {
		return nil, err
	}
	if rowID == "" {
		rowID = uuid.NewString()
	}

	var card *Card
	err = s.board.Exclusive(func(tx *sheet.Tx) error {
		sh, l, err := tx.Resolve(sheetID, layer)
		if err != nil {
			return err
		}
		if _, taken := l.At(pos); taken {
			return fmt.Errorf("%w: %s", sheet.ErrPositionOccupied, pos)
		}
		if _, placed := l.Find(rowID); placed {
			return fmt.Errorf("%w: %q", sheet.ErrDuplicateCard, rowID)
		}

		entry, err := a.GetDataEntry(rowID, args)
		if err != nil {
			return err
		}
		p := sheet.Placement{Position: pos, RowID: rowID, DataSetID: a.GetDataSetID()}
		if err := l.Place(p); err != nil {
			a.RemoveEntryByRowID(rowID)
			return err
		}
		if err := s.persist(ctx, a, entry, sh.ID, l.Name(), pos); err != nil {
			l.Remove(rowID)
			a.RemoveEntryByRowID(rowID)
			return err
		}
		card = &Card{SheetID: sh.ID, Layer: l.Name(), Position: pos, Entry: entry.Clone()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CardPlaced(a.GetDataSetID())
	s.logger.Info("card created", "sheet", card.SheetID, "layer", card.Layer, "dataset", a.GetDataSetID(), "row_id", rowID, "position", pos.String())
	s.notify(trigger.EventEntryCreated, card)
	return card, nil
}

// RemoveCard takes a card off its layer and deletes its row. The persisted
// record goes first so a storage failure leaves the board untouched.
func (s *Service) RemoveCard(ctx context.Context, sheetID, layer, rowID string) (*Card, error) {
	var card *Card
	err := s.board.Exclusive(func(tx *sheet.Tx) error {
		sh, l, err := tx.Resolve(sheetID, layer)
		if err != nil {
			return err
		}
		p, ok := l.Find(rowID)
		if !ok {
			return fmt.Errorf("%w: %q", sheet.ErrCardNotFound, rowID)
		}
		a, err := s.actors.Actor(p.DataSetID)
		if err != nil {
			return err
		}
		entry := s.entry(p)

		if s.entries != nil {
			if err := s.entries.DeleteEntry(ctx, a.Path(), rowID); err != nil && !errors.Is(err, storage.ErrEntryNotFound) {
				return fmt.Errorf("delete entry: %w", err)
			}
		}
		if _, err := l.Remove(rowID); err != nil {
			return err
		}
		a.RemoveEntryByRowID(rowID)
		card = &Card{SheetID: sh.ID, Layer: l.Name(), Position: p.Position, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dsID := ""
	if card.Entry != nil {
		dsID = card.Entry.ActorID
		metrics.CardRemoved(dsID)
	}
	s.logger.Info("card removed", "sheet", card.SheetID, "layer", card.Layer, "dataset", dsID, "row_id", rowID)
	s.notify(trigger.EventEntryRemoved, card)
	return card, nil
}

// MoveCard places an existing card at a new position on the same layer.
func (s *Service) MoveCard(ctx context.Context, sheetID, layer, rowID string, to sheet.Position) (*Card, error) {
	var card *Card
	err := s.board.Exclusive(func(tx *sheet.Tx) error {
		sh, l, err := tx.Resolve(sheetID, layer)
		if err != nil {
			return err
		}
		from, ok := l.Find(rowID)
		if !ok {
			return fmt.Errorf("%w: %q", sheet.ErrCardNotFound, rowID)
		}
		p, err := l.Move(rowID, to)
		if err != nil {
			return err
		}
		entry := s.entry(p)
		if entry != nil {
			a, err := s.actors.Actor(p.DataSetID)
			if err != nil {
				l.Move(rowID, from.Position)
				return err
			}
			if err := s.persist(ctx, a, entry, sh.ID, l.Name(), to); err != nil {
				l.Move(rowID, from.Position)
				return err
			}
		}
		card = &Card{SheetID: sh.ID, Layer: l.Name(), Position: to, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("card moved", "sheet", card.SheetID, "layer", card.Layer, "row_id", rowID, "position", to.String())
	s.notify(trigger.EventEntryMoved, card)
	return card, nil
}

// Card returns one placed card.
func (s *Service) Card(sheetID, layer, rowID string) (*Card, error) {
	var card *Card
	err := s.board.View(func(tx *sheet.Tx) error {
		sh, l, err := tx.Resolve(sheetID, layer)
		if err != nil {
			return err
		}
		p, ok := l.Find(rowID)
		if !ok {
			return fmt.Errorf("%w: %q", sheet.ErrCardNotFound, rowID)
		}
		card = &Card{SheetID: sh.ID, Layer: l.Name(), Position: p.Position, Entry: s.entry(p)}
		return nil
	})
	return card, err
}

// Cards lists the cards of a layer in row-major position order.
func (s *Service) Cards(sheetID, layer string) ([]Card, error) {
	var cards []Card
	err := s.board.View(func(tx *sheet.Tx) error {
		sh, l, err := tx.Resolve(sheetID, layer)
		if err != nil {
			return err
		}
		snap := l.Snapshot()
		cards = make([]Card, len(snap))
		for i, p := range snap {
			cards[i] = Card{SheetID: sh.ID, Layer: l.Name(), Position: p.Position, Entry: s.entry(p)}
		}
		return nil
	})
	return cards, err
}

// CardCluster returns the cluster holding the card at pos.
func (s *Service) CardCluster(sheetID, layer string, pos sheet.Position) ([]sheet.Placement, error) {
	return s.engine.CardCluster(sheetID, layer, pos)
}

// Clusters partitions a layer into clusters.
func (s *Service) Clusters(sheetID, layer string) ([]cluster.Cluster, error) {
	return s.engine.Clusters(sheetID, layer)
}

// BoundingBoxes returns padded cluster bounds. A negative padding means the
// configured default.
func (s *Service) BoundingBoxes(sheetID, layer string, padding int) (map[cluster.Key]cluster.BoundingBox, error) {
	return s.engine.BoundingBoxes(sheetID, layer, padding)
}

// ClusterBoard partitions every layer of the board.
func (s *Service) ClusterBoard(ctx context.Context) ([]cluster.LayerClusters, error) {
	return s.engine.ClusterBoard(ctx)
}

// Padding is the default bounding box padding.
func (s *Service) Padding() int {
	return s.engine.Padding()
}

// Actors lists the registered card kinds.
func (s *Service) Actors() []*actor.Base {
	return s.actors.List()
}

// Actor returns the actor for a card kind.
func (s *Service) Actor(kind string) (*actor.Base, error) {
	return s.actors.Actor(kind)
}

// DataSet returns the rows of one card kind.
func (s *Service) DataSet(id string) (*dataset.DataSet, error) {
	return s.datasets.Get(id)
}

// Rows returns copies of a dataset's rows in insertion order. The copy is
// taken under the board lock so rows are never read mid-mutation.
func (s *Service) Rows(datasetID string) ([]*dataset.DataEntry, error) {
	set, err := s.datasets.Get(datasetID)
	if err != nil {
		return nil, err
	}
	var rows []*dataset.DataEntry
	s.board.View(func(*sheet.Tx) error {
		rows = set.Entries()
		for i, e := range rows {
			rows[i] = e.Clone()
		}
		return nil
	})
	return rows, nil
}

// entry returns a copy of the row behind a placement, or nil when the row
// has gone missing.
func (s *Service) entry(p sheet.Placement) *dataset.DataEntry {
	set, err := s.datasets.Get(p.DataSetID)
	if err != nil {
		return nil
	}
	e, ok := set.GetEntry(p.RowID)
	if !ok {
		return nil
	}
	return e.Clone()
}

func (s *Service) persist(ctx context.Context, a *actor.Base, e *dataset.DataEntry, sheetID, layer string, pos sheet.Position) error {
	if s.entries == nil {
		return nil
	}
	cells, err := json.Marshal(e.Values)
	if err != nil {
		return fmt.Errorf("encode cells: %w", err)
	}
	_, err = s.entries.SaveEntry(ctx, storage.Record{
		Path:    a.Path(),
		RowID:   e.RowID,
		ActorID: e.ActorID,
		SheetID: sheetID,
		Layer:   layer,
		X:       pos.X,
		Y:       pos.Y,
		Cells:   cells,
	})
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

func (s *Service) notify(event string, c *Card) {
	if s.notifier == nil || c.Entry == nil {
		return
	}
	s.notifier.NotifyEntry(event, trigger.EntryEventParams{
		DataSetID: c.Entry.ActorID,
		RowID:     c.Entry.RowID,
		SheetID:   c.SheetID,
		Layer:     c.Layer,
		X:         c.Position.X,
		Y:         c.Position.Y,
		Values:    c.Entry.Values,
	})
}
