package actor

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ryanbastic/go-cardsheet/internal/dataset"
)

var (
	ErrUnknownKind   = errors.New("unknown actor kind")
	ErrDuplicateKind = errors.New("actor kind already registered")
)

// Builtin returns the variants shipped with the service, keyed by dataset ID.
func Builtin() map[string]Variant {
	return map[string]Variant{
		NoteDataSetID:    Note{},
		CounterDataSetID: Counter{},
	}
}

// Registry maps dataset IDs to a shared actor instance. It is how a
// DataEntry's ActorID handle is turned back into an Actor.
type Registry struct {
	mu     sync.RWMutex
	store  *dataset.Store
	logger *slog.Logger
	actors map[string]*Base
}

// NewRegistry creates an empty registry whose actors write to store.
func NewRegistry(store *dataset.Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: logger,
		actors: make(map[string]*Base),
	}
}

// Register adds a variant whose DataSet is persisted at path.
func (r *Registry) Register(v Variant, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := v.DataSetID()
	if _, ok := r.actors[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKind, id)
	}
	r.actors[id] = New(v, r.store, path, r.logger.With("dataset", id))
	return nil
}

// Actor returns the actor for a dataset ID.
func (r *Registry) Actor(datasetID string) (*Base, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[datasetID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, datasetID)
	}
	return a, nil
}

// Resolve returns the actor that produced an entry.
func (r *Registry) Resolve(e *dataset.DataEntry) (*Base, error) {
	return r.Actor(e.ActorID)
}

// List returns all actors ordered by dataset ID.
func (r *Registry) List() []*Base {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Base, 0, len(r.actors))
	for _, a := range r.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetDataSetID() < out[j].GetDataSetID() })
	return out
}
