package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ryanbastic/go-cardsheet/internal/actor"
	"github.com/ryanbastic/go-cardsheet/internal/config"
	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/metrics"
	"github.com/ryanbastic/go-cardsheet/internal/sheet"
	"github.com/ryanbastic/go-cardsheet/internal/storage"
)

// SheetInfo describes a sheet and its layers.
type SheetInfo struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Current      bool        `json:"current"`
	CurrentLayer string      `json:"current_layer"`
	Layers       []LayerInfo `json:"layers"`
}

type LayerInfo struct {
	Name  string `json:"name"`
	Cards int    `json:"cards"`
}

func describe(tx *sheet.Tx, s *sheet.Sheet) SheetInfo {
	info := SheetInfo{ID: s.ID, Name: s.Name}
	if cur, ok := tx.CurrentSheet(); ok {
		info.Current = cur.ID == s.ID
	}
	if l, ok := s.CurrentLayer(); ok {
		info.CurrentLayer = l.Name()
	}
	for _, l := range s.Layers() {
		info.Layers = append(info.Layers, LayerInfo{Name: l.Name(), Cards: l.Len()})
	}
	return info
}

// CreateSheet adds a sheet with the given layers. The first sheet created
// becomes current, as does its first layer.
func (s *Service) CreateSheet(id, name string, layers []string) (*SheetInfo, error) {
	seen := make(map[string]bool, len(layers))
	for _, l := range layers {
		if l == "" {
			return nil, fmt.Errorf("%w: empty layer name", sheet.ErrInvalidName)
		}
		if seen[l] {
			return nil, fmt.Errorf("%w: layer %q listed twice", sheet.ErrDuplicateName, l)
		}
		seen[l] = true
	}

	var info SheetInfo
	err := s.board.Exclusive(func(tx *sheet.Tx) error {
		sh, err := tx.AddSheet(id, name)
		if err != nil {
			return err
		}
		for _, l := range layers {
			if _, err := sh.AddLayer(l); err != nil {
				return err
			}
		}
		info = describe(tx, sh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("sheet created", "sheet", id, "layers", len(layers))
	return &info, nil
}

// AddLayer adds a layer to an existing sheet.
func (s *Service) AddLayer(sheetID, name string) (*SheetInfo, error) {
	var info SheetInfo
	err := s.board.Exclusive(func(tx *sheet.Tx) error {
		sh, err := tx.Sheet(sheetID)
		if err != nil {
			return err
		}
		if _, err := sh.AddLayer(name); err != nil {
			return err
		}
		info = describe(tx, sh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Sheet describes one sheet. An empty id selects the current sheet.
func (s *Service) Sheet(id string) (*SheetInfo, error) {
	var info SheetInfo
	err := s.board.View(func(tx *sheet.Tx) error {
		var sh *sheet.Sheet
		if id == "" {
			cur, ok := tx.CurrentSheet()
			if !ok {
				return fmt.Errorf("%w: no current sheet", sheet.ErrSheetNotFound)
			}
			sh = cur
		} else {
			var err error
			if sh, err = tx.Sheet(id); err != nil {
				return err
			}
		}
		info = describe(tx, sh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Sheets lists sheets in creation order.
func (s *Service) Sheets() []SheetInfo {
	var out []SheetInfo
	s.board.View(func(tx *sheet.Tx) error {
		for _, sh := range tx.Sheets() {
			out = append(out, describe(tx, sh))
		}
		return nil
	})
	return out
}

// SetCurrent changes the current sheet and, when layer is set, that sheet's
// current layer.
func (s *Service) SetCurrent(sheetID, layer string) error {
	return s.board.Exclusive(func(tx *sheet.Tx) error {
		sh, err := tx.Sheet(sheetID)
		if err != nil {
			return err
		}
		if layer != "" {
			if err := sh.SetCurrentLayer(layer); err != nil {
				return err
			}
		}
		return tx.SetCurrentSheet(sheetID)
	})
}

// ApplyBoardConfig creates the sheets and layers a board file lists.
func (s *Service) ApplyBoardConfig(cfg *config.BoardConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.board.Exclusive(func(tx *sheet.Tx) error {
		for _, sc := range cfg.Sheets {
			name := sc.Name
			if name == "" {
				name = sc.ID
			}
			sh, err := tx.AddSheet(sc.ID, name)
			if err != nil {
				return err
			}
			for _, l := range sc.Layers {
				if _, err := sh.AddLayer(l); err != nil {
					return err
				}
			}
			if sc.CurrentLayer != "" {
				if err := sh.SetCurrentLayer(sc.CurrentLayer); err != nil {
					return err
				}
			}
		}
		if cfg.CurrentSheet != "" {
			return tx.SetCurrentSheet(cfg.CurrentSheet)
		}
		return nil
	})
}

// RegisterActors registers the card kinds named in cfg. A nil cfg registers
// every built-in kind under "cards/<dataset id>".
func RegisterActors(r *actor.Registry, cfg *config.ActorConfig) error {
	builtin := actor.Builtin()
	if cfg == nil {
		for id, v := range builtin {
			if err := r.Register(v, "cards/"+id); err != nil {
				return err
			}
		}
		return nil
	}
	for _, def := range cfg.Actors {
		v, ok := builtin[def.Kind]
		if !ok {
			return fmt.Errorf("%w: %q", actor.ErrUnknownKind, def.Kind)
		}
		if err := r.Register(v, def.Path); err != nil {
			return err
		}
	}
	return nil
}

const restorePageSize = 500

// Restore reloads persisted cards for every registered actor. Records that
// no longer fit the board (unknown layer, taken position, stale schema) are
// logged and skipped. It returns the number of cards placed.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if s.entries == nil {
		return 0, nil
	}

	restored := 0
	err := s.board.Exclusive(func(tx *sheet.Tx) error {
		for _, a := range s.actors.List() {
			cursor := ""
			for {
				page, err := s.entries.LoadEntries(ctx, a.Path(), cursor, restorePageSize)
				if err != nil {
					return fmt.Errorf("restore %s: %w", a.GetDataSetID(), err)
				}
				for _, rec := range page.Records {
					if err := s.restoreRecord(tx, a, rec); err != nil {
						s.logger.Warn("skipping persisted card", "path", rec.Path, "row_id", rec.RowID, "error", err)
						continue
					}
					restored++
				}
				if !page.HasMore {
					break
				}
				cursor = page.NextCursor
			}
		}
		return nil
	})
	if err != nil {
		return restored, err
	}
	s.logger.Info("cards restored", "count", restored)
	return restored, nil
}

func (s *Service) restoreRecord(tx *sheet.Tx, a *actor.Base, rec storage.Record) error {
	var values []dataset.DataValue
	if err := json.Unmarshal(rec.Cells, &values); err != nil {
		return fmt.Errorf("decode cells: %w", err)
	}
	if rec.ActorID != "" && rec.ActorID != a.GetDataSetID() {
		return fmt.Errorf("%w: record actor %q", dataset.ErrSchemaMismatch, rec.ActorID)
	}

	_, l, err := tx.Resolve(rec.SheetID, rec.Layer)
	if err != nil {
		return err
	}
	set, err := s.datasets.GetOrCreate(a.GetDataSetID(), a.Columns(), a.Path())
	if err != nil {
		return err
	}
	entry := dataset.NewEntry(rec.RowID, a.GetDataSetID(), values)
	if err := set.AddEntry(entry); err != nil {
		return err
	}
	pos := sheet.Position{X: rec.X, Y: rec.Y}
	if err := l.Place(sheet.Placement{Position: pos, RowID: rec.RowID, DataSetID: a.GetDataSetID()}); err != nil {
		if rmErr := set.RemoveRowID(rec.RowID); rmErr != nil && !errors.Is(rmErr, dataset.ErrMissingEntry) {
			s.logger.Error("rollback restored entry failed", "row_id", rec.RowID, "error", rmErr)
		}
		return err
	}
	metrics.CardPlaced(a.GetDataSetID())
	return nil
}
