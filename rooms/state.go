package rooms

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PlanState holds the latest extraction result for one plan.
type PlanState struct {
	PlanID         string    `json:"planId"`
	Segments       []Segment `json:"segments"`
	Rooms          []Room    `json:"rooms"`
	MalformedWalks int       `json:"malformedWalks,omitempty"`
	Updated        int64     `json:"updated"`
}

// StateTracker tracks per-plan segments and extracted rooms for the HTTP
// endpoints. Optionally persists the floorplan state to a cache file so a
// restart does not lose the last extraction.
type StateTracker struct {
	mu        sync.RWMutex
	plans     map[string]*PlanState
	colors    map[string]string // plan ID -> hex color
	cachePath string            // path to cache file; empty disables persistence
}

// NewStateTracker creates a new state tracker
func NewStateTracker() *StateTracker {
	return &StateTracker{
		plans:  make(map[string]*PlanState),
		colors: make(map[string]string),
	}
}

// NewStateTrackerWithCache creates a state tracker that persists plan
// states to the given cache file path. If the file exists, the cached
// floorplan is loaded on creation.
func NewStateTrackerWithCache(cachePath string) *StateTracker {
	st := &StateTracker{
		plans:     make(map[string]*PlanState),
		colors:    make(map[string]string),
		cachePath: cachePath,
	}
	if cachePath != "" {
		if plans, err := LoadFloorplanCache(cachePath); err == nil {
			st.plans = plans
		}
	}
	return st
}

// SetColor sets the color for a plan
func (st *StateTracker) SetColor(planID, hexColor string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.colors[planID] = hexColor
}

// GetColor returns the configured color for a plan, or the default red
func (st *StateTracker) GetColor(planID string) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	color := st.colors[planID]
	if color == "" {
		color = "#FF0000"
	}
	return color
}

// UpdatePlan stores a plan's latest segments and extraction result and
// persists the cache when configured.
func (st *StateTracker) UpdatePlan(planID string, segments []Segment, roomList []Room, malformedWalks int) {
	st.mu.Lock()
	st.plans[planID] = &PlanState{
		PlanID:         planID,
		Segments:       segments,
		Rooms:          roomList,
		MalformedWalks: malformedWalks,
		Updated:        time.Now().Unix(),
	}
	plans := st.copyPlansLocked()
	cachePath := st.cachePath
	st.mu.Unlock()

	if cachePath != "" {
		// Best effort; extraction results stay valid in memory either way.
		_ = SaveFloorplanCache(plans, cachePath)
	}
}

// GetPlan returns the latest state for a plan
func (st *StateTracker) GetPlan(planID string) (*PlanState, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	state, ok := st.plans[planID]
	return state, ok
}

// GetAllPlans returns all plan states keyed by plan ID
func (st *StateTracker) GetAllPlans() map[string]*PlanState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.copyPlansLocked()
}

// HasPlans returns true if at least one plan has been extracted
func (st *StateTracker) HasPlans() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.plans) > 0
}

// CombinedFloorplan returns all segments and rooms across plans, with
// plans visited in sorted ID order for deterministic output.
func (st *StateTracker) CombinedFloorplan() ([]Segment, []Room) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	ids := make([]string, 0, len(st.plans))
	for id := range st.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var segments []Segment
	var roomList []Room
	for _, id := range ids {
		state := st.plans[id]
		segments = append(segments, state.Segments...)
		roomList = append(roomList, state.Rooms...)
	}
	return segments, roomList
}

// CombinedLayers returns one wall layer per plan in sorted ID order,
// carrying the plan's configured color. Plans without a configured
// color get a zero color, which renderers replace with the default
// wall color.
func (st *StateTracker) CombinedLayers() []WallLayer {
	st.mu.RLock()
	defer st.mu.RUnlock()

	ids := make([]string, 0, len(st.plans))
	for id := range st.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	layers := make([]WallLayer, 0, len(ids))
	for _, id := range ids {
		layer := WallLayer{
			Plan:     id,
			Segments: st.plans[id].Segments,
		}
		if hex := st.colors[id]; hex != "" {
			c := parseHexColor(hex)
			layer.Color = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
		}
		layers = append(layers, layer)
	}
	return layers
}

func (st *StateTracker) copyPlansLocked() map[string]*PlanState {
	result := make(map[string]*PlanState, len(st.plans))
	for k, v := range st.plans {
		stateCopy := *v
		result[k] = &stateCopy
	}
	return result
}

// SaveFloorplanCache writes plan states to disk as JSON.
func SaveFloorplanCache(plans map[string]*PlanState, path string) error {
	data, err := json.MarshalIndent(plans, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal floorplan cache: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write floorplan cache: %w", err)
	}
	return nil
}

// LoadFloorplanCache reads plan states from a JSON file on disk.
func LoadFloorplanCache(path string) (map[string]*PlanState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read floorplan cache: %w", err)
	}
	var plans map[string]*PlanState
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("unmarshal floorplan cache: %w", err)
	}
	if plans == nil {
		plans = make(map[string]*PlanState)
	}
	return plans, nil
}
