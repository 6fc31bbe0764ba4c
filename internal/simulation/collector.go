// Package simulation wires pkg/simulation's Driver to the persistence
// layer (C8): a best-effort subscriber of the same on_progress/
// on_optimizer_log interface any other consumer (the HTTP API, the CLI)
// uses. The dependency runs one way only; the Driver does not import this
// package.
package simulation

import (
	"encoding/json"
	"time"

	"github.com/casperlundberg/edge-offload-simulator/internal/database"
	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
)

// DBCollector persists a run's slot results and optimizer telemetry as
// they stream in, best-effort: a failed write is logged by the caller and
// never aborts the simulation.
type DBCollector struct {
	repo  *database.Repository
	runID string
	// seenBaseline and seenPredictive track how many BaselineResults/PredictiveResults entries
	// have already been persisted, so CollectProgress only writes the
	// newly appended slot(s) on each call rather than re-inserting the
	// whole history.
	seenBaseline   int
	seenPredictive int
}

// NewDBCollector creates the run row and returns a collector bound to it.
func NewDBCollector(repo *database.Repository, cfg models.ExperimentConfig, runID string) (*DBCollector, error) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	run := &database.Run{
		ID:        runID,
		Config:    string(configJSON),
		Status:    string(models.StatusRunning),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repo.CreateRun(run); err != nil {
		return nil, err
	}
	return &DBCollector{repo: repo, runID: runID}, nil
}

// CollectProgress persists whatever slot results are new since the last
// call, plus the run's current status.
func (c *DBCollector) CollectProgress(state models.SimulationState) error {
	for ; c.seenBaseline < len(state.BaselineResults); c.seenBaseline++ {
		if err := c.repo.SaveSlotResult(c.runID, state.BaselineResults[c.seenBaseline]); err != nil {
			return err
		}
	}
	for ; c.seenPredictive < len(state.PredictiveResults); c.seenPredictive++ {
		if err := c.repo.SaveSlotResult(c.runID, state.PredictiveResults[c.seenPredictive]); err != nil {
			return err
		}
	}
	return c.repo.UpdateRunStatus(c.runID, string(state.Status))
}

// CollectOptimizerLog persists one telemetry entry as it is emitted.
func (c *DBCollector) CollectOptimizerLog(entry models.OptimizerLogEntry) error {
	return c.repo.SaveOptimizerLogEntry(c.runID, entry)
}
