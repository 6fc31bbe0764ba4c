package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
)

type RepositorySuite struct {
	suite.Suite
	repo *Repository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	db, err := NewDatabase(filepath.Join(s.T().TempDir(), "test.db"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { db.Close() })
	s.repo = NewRepository(db)
}

func (s *RepositorySuite) TestCreateAndGetRun() {
	run := &Run{ID: "run-1", Config: `{"total_slots":10}`, Status: "running"}
	s.Require().NoError(s.repo.CreateRun(run))

	got, err := s.repo.GetRun("run-1")
	s.Require().NoError(err)
	s.Equal("running", got.Status)
}

func (s *RepositorySuite) TestUpdateRunStatus() {
	run := &Run{ID: "run-2", Config: "{}", Status: "running"}
	s.Require().NoError(s.repo.CreateRun(run))
	s.Require().NoError(s.repo.UpdateRunStatus("run-2", "completed"))

	got, err := s.repo.GetRun("run-2")
	s.Require().NoError(err)
	s.Equal("completed", got.Status)
}

func (s *RepositorySuite) TestSaveSlotResultFlattensSensorsAndCounts() {
	run := &Run{ID: "run-3", Config: "{}", Status: "running"}
	s.Require().NoError(s.repo.CreateRun(run))

	result := models.SlotResult{
		Slot:      0,
		Algorithm: models.AlgorithmBaseline,
		Sensors: []models.SensorSlotResult{
			{ID: "s1", HLocal: 10, BatteryJ: 5},
			{ID: "s2", HLocal: 20, BatteryJ: 3},
		},
	}
	s.Require().NoError(s.repo.SaveSlotResult("run-3", result))

	count, err := s.repo.CountSlotRecords("run-3")
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *RepositorySuite) TestSaveSlotResultWithNoSensorsIsNoOp() {
	run := &Run{ID: "run-4", Config: "{}", Status: "running"}
	s.Require().NoError(s.repo.CreateRun(run))

	s.Require().NoError(s.repo.SaveSlotResult("run-4", models.SlotResult{Slot: 0}))

	count, err := s.repo.CountSlotRecords("run-4")
	s.Require().NoError(err)
	s.Equal(int64(0), count)
}

func (s *RepositorySuite) TestDeleteRunRemovesSlotRecordsAndLog() {
	run := &Run{ID: "run-5", Config: "{}", Status: "running"}
	s.Require().NoError(s.repo.CreateRun(run))
	s.Require().NoError(s.repo.SaveSlotResult("run-5", models.SlotResult{
		Sensors: []models.SensorSlotResult{{ID: "s1"}},
	}))
	s.Require().NoError(s.repo.SaveOptimizerLogEntry("run-5", models.OptimizerLogEntry{SensorID: "s1"}))

	s.Require().NoError(s.repo.DeleteRun("run-5"))

	count, err := s.repo.CountSlotRecords("run-5")
	s.Require().NoError(err)
	s.Equal(int64(0), count)

	var logCount int64
	s.Require().NoError(s.repo.db.Model(&OptimizerLogEntry{}).Where("run_id = ?", "run-5").Count(&logCount).Error)
	s.Equal(int64(0), logCount)

	_, err = s.repo.GetRun("run-5")
	s.Error(err)
}

func (s *RepositorySuite) TestListRunsOrdersNewestFirst() {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.repo.CreateRun(&Run{ID: "run-a", Config: "{}", Status: "running", CreatedAt: older}))
	s.Require().NoError(s.repo.CreateRun(&Run{ID: "run-b", Config: "{}", Status: "running", CreatedAt: older.Add(time.Hour)}))

	runs, err := s.repo.ListRuns()
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal("run-b", runs[0].ID)
}
