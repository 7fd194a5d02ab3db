package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/DriveDocs-Network/data_layer/client"
)

// ModelsState is a read-through cache of the model catalog. The cache never
// expires within a process lifetime; Reset is the only invalidation.
type ModelsState struct {
	mu      sync.RWMutex
	client  *client.Client
	models  []ModelGeneration
	pending bool
	failed  bool
}

// NewModelsState creates a models cache over the given API client.
func NewModelsState(c *client.Client) *ModelsState {
	return &ModelsState{client: c}
}

// Models returns the cached catalog, or nil when not fetched.
func (st *ModelsState) Models() []ModelGeneration {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.models
}

// Pending reports whether a fetch is in flight.
func (st *ModelsState) Pending() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.pending
}

// Failed reports whether the last fetch errored.
func (st *ModelsState) Failed() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.failed
}

// Fetch loads the catalog. The endpoint is public; no credentials are
// attached.
func (st *ModelsState) Fetch(ctx context.Context) ([]ModelGeneration, error) {
	st.mu.Lock()
	st.pending = true
	st.mu.Unlock()

	body, err := st.client.Do(ctx, http.MethodGet, "/models", nil)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.pending = false

	if err != nil {
		st.failed = true
		return nil, err
	}

	var models []ModelGeneration
	if err := json.Unmarshal(body, &models); err != nil {
		st.failed = true
		return nil, fmt.Errorf("decode models: %w", err)
	}
	st.failed = false
	st.models = models
	return models, nil
}

// Reset clears the cache and pending flag.
func (st *ModelsState) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.models = nil
	st.pending = false
	st.failed = false
}

// FiltersState is a read-through cache of the post filter metadata.
type FiltersState struct {
	mu      sync.RWMutex
	client  *client.Client
	filters *FiltersData
	pending bool
	failed  bool
}

// NewFiltersState creates a filters cache over the given API client.
func NewFiltersState(c *client.Client) *FiltersState {
	return &FiltersState{client: c}
}

// Filters returns the cached filter data, or nil when not fetched.
func (st *FiltersState) Filters() *FiltersData {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.filters
}

// Pending reports whether a fetch is in flight.
func (st *FiltersState) Pending() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.pending
}

// Failed reports whether the last fetch errored.
func (st *FiltersState) Failed() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.failed
}

// Fetch loads the filter metadata. The endpoint is public.
func (st *FiltersState) Fetch(ctx context.Context) (*FiltersData, error) {
	st.mu.Lock()
	st.pending = true
	st.mu.Unlock()

	body, err := st.client.Do(ctx, http.MethodGet, "/models/filters", nil)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.pending = false

	if err != nil {
		st.failed = true
		return nil, err
	}

	var filters FiltersData
	if err := json.Unmarshal(body, &filters); err != nil {
		st.failed = true
		return nil, fmt.Errorf("decode filters: %w", err)
	}
	st.failed = false
	st.filters = &filters
	return &filters, nil
}

// Reset clears the cache and pending flag.
func (st *FiltersState) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.filters = nil
	st.pending = false
	st.failed = false
}
