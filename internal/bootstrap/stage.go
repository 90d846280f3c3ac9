// Package bootstrap assembles the site from its configuration: logging,
// telemetry, the data backend and the HTTP server.
package bootstrap

import (
	"fmt"
	"sort"
	"sync"

	"summit/internal/logging"
)

// Stage is a single initialization step during startup.
type Stage struct {
	Name     string
	Required bool // failure aborts startup; optional failures are recorded as degraded
	Init     func() error
}

// DegradedComponents tracks optional stages that failed without stopping startup.
type DegradedComponents struct {
	mu         sync.RWMutex
	components map[string]string
}

// NewDegradedComponents returns an empty tracker.
func NewDegradedComponents() *DegradedComponents {
	return &DegradedComponents{components: make(map[string]string)}
}

// Record marks name as degraded.
func (d *DegradedComponents) Record(name, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.components[name] = reason
}

// Map returns a snapshot of the degraded components.
func (d *DegradedComponents) Map() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.components))
	for k, v := range d.components {
		out[k] = v
	}
	return out
}

// Names lists the degraded components in order.
func (d *DegradedComponents) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.components))
	for name := range d.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEmpty reports whether nothing is degraded.
func (d *DegradedComponents) IsEmpty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.components) == 0
}

// RunStages executes stages in order. A failed required stage stops the run.
func RunStages(stages []Stage, degraded *DegradedComponents, logger logging.Logger) error {
	logger = logging.OrNop(logger)
	for _, stage := range stages {
		logger.Debug("[Bootstrap] Running stage: %s (required=%v)", stage.Name, stage.Required)
		if err := stage.Init(); err != nil {
			if stage.Required {
				return fmt.Errorf("required stage %q failed: %w", stage.Name, err)
			}
			logger.Warn("[Bootstrap] Optional stage %q failed: %v (continuing in degraded mode)", stage.Name, err)
			if degraded != nil {
				degraded.Record(stage.Name, err.Error())
			}
		}
	}
	return nil
}
