package database

import (
	"gorm.io/gorm"

	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
)

// Repository provides data access methods over the persisted run schema.
// It is write-heavy from the simulation's point of view: the Driver has no
// import-time dependency on it, a progress subscriber (see
// internal/simulation's collector) calls these methods as a best-effort
// sink.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new run row from its submitted configuration.
func (r *Repository) CreateRun(run *Run) error {
	return r.db.Create(run).Error
}

// UpdateRunStatus updates a run's status (and updated_at via gorm's
// auto-touch convention).
func (r *Repository) UpdateRunStatus(id, status string) error {
	return r.db.Model(&Run{}).Where("id = ?", id).Update("status", status).Error
}

// GetRun retrieves a run by id.
func (r *Repository) GetRun(id string) (*Run, error) {
	var run Run
	if err := r.db.First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns lists every persisted run, newest first.
func (r *Repository) ListRuns() ([]Run, error) {
	var runs []Run
	err := r.db.Order("created_at DESC").Find(&runs).Error
	return runs, err
}

// SaveSlotResult flattens one policy's SlotResult into per-sensor rows and
// batch-inserts them.
func (r *Repository) SaveSlotResult(runID string, result models.SlotResult) error {
	rows := make([]SlotRecord, len(result.Sensors))
	for i, sensor := range result.Sensors {
		rows[i] = SlotRecord{
			RunID:        runID,
			Algorithm:    string(result.Algorithm),
			Slot:         result.Slot,
			SensorID:     sensor.ID,
			HLocal:       sensor.HLocal,
			HOffload:     sensor.HOffload,
			HEdge:        sensor.HEdge,
			Alpha:        sensor.Alpha,
			LocalEnergyJ: sensor.LocalEnergyJ,
			TxEnergyJ:    sensor.TxEnergyJ,
			TxPowerW:     sensor.TxPowerW,
			CPUFreqHz:    sensor.CPUFrequencyHz,
			ArrivalBits:  sensor.ArrivalBits,
			HarvestJ:     sensor.HarvestJ,
			BatteryJ:     sensor.BatteryJ,
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.CreateInBatches(rows, 100).Error
}

// SaveOptimizerLogEntry persists one Predictive-optimizer telemetry row.
func (r *Repository) SaveOptimizerLogEntry(runID string, entry models.OptimizerLogEntry) error {
	row := OptimizerLogEntry{
		RunID:           runID,
		SensorID:        entry.SensorID,
		Slot:            entry.Slot,
		Generation:      entry.Generation,
		BestFitness:     entry.BestFitness,
		AverageFitness:  entry.AverageFitness,
		InfeasibleCount: entry.InfeasibleCount,
		ElapsedMs:       entry.ElapsedMs,
	}
	return r.db.Create(&row).Error
}

// CountSlotRecords returns how many SlotRecord rows a run has accumulated,
// used by the persistence testable property (§8 scenario 9).
func (r *Repository) CountSlotRecords(runID string) (int64, error) {
	var count int64
	err := r.db.Model(&SlotRecord{}).Where("run_id = ?", runID).Count(&count).Error
	return count, err
}

// DeleteRun removes a run and every row derived from it.
func (r *Repository) DeleteRun(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&SlotRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&OptimizerLogEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Run{}).Error
	})
}
