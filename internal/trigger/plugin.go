package trigger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPluginNotFound  = errors.New("plugin not found")
	ErrInvalidPlugin   = errors.New("invalid plugin")
	ErrDuplicatePlugin = errors.New("plugin name already registered")
)

// PluginStatus represents the activation state of a plugin.
type PluginStatus string

const (
	PluginStatusActive   PluginStatus = "active"
	PluginStatusInactive PluginStatus = "inactive"
)

// Plugin is an external JSON-RPC service that receives card entry events
// for the datasets it subscribes to.
type Plugin struct {
	ID                 uuid.UUID    `json:"id"`
	Name               string       `json:"name"`
	Endpoint           string       `json:"endpoint"`
	SubscribedDataSets []string     `json:"subscribed_datasets"`
	Status             PluginStatus `json:"status"`
	CreatedAt          time.Time    `json:"created_at"`
}

func (p *Plugin) validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidPlugin)
	case p.Endpoint == "":
		return fmt.Errorf("%w: endpoint is required", ErrInvalidPlugin)
	case len(p.SubscribedDataSets) == 0:
		return fmt.Errorf("%w: at least one dataset subscription is required", ErrInvalidPlugin)
	}
	switch p.Status {
	case "", PluginStatusActive, PluginStatusInactive:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPlugin, p.Status)
	}
	return nil
}

// PluginRegistry is a thread-safe store of registered plugins, optionally
// written through to a PluginStore.
type PluginRegistry struct {
	mu      sync.RWMutex
	plugins map[uuid.UUID]*Plugin
	store   PluginStore
}

// NewPluginRegistry creates an empty registry. At most one store is used;
// a nil or missing store keeps plugins in memory only.
func NewPluginRegistry(store ...PluginStore) *PluginRegistry {
	r := &PluginRegistry{plugins: make(map[uuid.UUID]*Plugin)}
	if len(store) > 0 {
		r.store = store[0]
	}
	return r
}

// LoadAll replaces the in-memory plugins with those in the store.
func (r *PluginRegistry) LoadAll(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	plugins, err := r.store.ListPlugins(ctx)
	if err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[uuid.UUID]*Plugin, len(plugins))
	for _, p := range plugins {
		r.plugins[p.ID] = p
	}
	return nil
}

// Register validates p, assigns its ID and creation time and adds it.
func (r *PluginRegistry) Register(p *Plugin) error {
	if err := p.validate(); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	if p.Status == "" {
		p.Status = PluginStatusActive
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.plugins {
		if existing.Name == p.Name {
			return fmt.Errorf("%w: %q", ErrDuplicatePlugin, p.Name)
		}
	}
	if r.store != nil {
		if err := r.store.SavePlugin(context.Background(), p); err != nil {
			return err
		}
	}
	r.plugins[p.ID] = p
	return nil
}

// Get returns a plugin by ID.
func (r *PluginRegistry) Get(id uuid.UUID) (*Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, id)
	}
	return p, nil
}

// List returns all registered plugins, oldest first.
func (r *PluginRegistry) List() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Delete removes a plugin by ID.
func (r *PluginRegistry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, id)
	}
	if r.store != nil {
		if err := r.store.DeletePlugin(context.Background(), id); err != nil {
			return err
		}
	}
	delete(r.plugins, id)
	return nil
}

// SetStatus activates or deactivates a plugin. Inactive plugins stay
// registered but receive no events.
func (r *PluginRegistry) SetStatus(id uuid.UUID, status PluginStatus) (*Plugin, error) {
	if status != PluginStatusActive && status != PluginStatusInactive {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidPlugin, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plugins[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, id)
	}
	if r.store != nil {
		if err := r.store.UpdateStatus(context.Background(), id, status); err != nil {
			return nil, err
		}
	}
	p.Status = status
	return p, nil
}

// ForDataSet returns all active plugins subscribed to the given dataset.
func (r *PluginRegistry) ForDataSet(datasetID string) []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Plugin
	for _, p := range r.plugins {
		if p.Status != PluginStatusActive {
			continue
		}
		if slices.Contains(p.SubscribedDataSets, datasetID) {
			out = append(out, p)
		}
	}
	return out
}

// DataSets returns the sorted unique dataset IDs across active plugins.
func (r *PluginRegistry) DataSets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, p := range r.plugins {
		if p.Status != PluginStatusActive {
			continue
		}
		for _, id := range p.SubscribedDataSets {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
