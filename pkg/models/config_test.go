package models

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func validSensor(id string) SensorConfig {
	return SensorConfig{
		ID:              id,
		MeanArrival:     1000,
		Arrival:         ArrivalModel{Type: ArrivalPoisson, Lambda: 5},
		InitialQueue:    0,
		InitialBattery:  10,
		MeanHarvest:     1,
		Harvest:         HarvestModel{Type: HarvestConstant, Value: 1},
		MaxCPUFrequency: 1e9,
		CyclesPerBit:    1000,
		MaxTxPower:      1,
		MeanChannelGain: 1e-6,
		ChannelVariance: 1e-8,
		Mode:            OffloadBinary,
		PriorityWeight:  1,
	}
}

func validConfig() ExperimentConfig {
	return ExperimentConfig{
		Sensors:    []SensorConfig{validSensor("s1")},
		Edge:       EdgeConfig{ID: "edge-1", CPUFrequency: 2e9, Cores: 4, MaxFrequency: 2e9},
		Constants:  GlobalConstants{V: 1, SlotDuration: 1, Bandwidth: 1e6, CPUEnergyCoeff: 1e-28, NoisePower: 1e-13, DefaultCyclesPerBit: 1000, Horizon: 0},
		TotalSlots: 10,
	}
}

func (s *ConfigSuite) TestValidConfigHasNoErrors() {
	s.False(validConfig().Validate().HasErrors())
}

func (s *ConfigSuite) TestEmptySensorListIsConfigurationError() {
	cfg := validConfig()
	cfg.Sensors = nil
	errs := cfg.Validate()
	s.True(errs.HasErrors())
}

func (s *ConfigSuite) TestDuplicateSensorIDsRejected() {
	cfg := validConfig()
	cfg.Sensors = []SensorConfig{validSensor("dup"), validSensor("dup")}
	errs := cfg.Validate()
	s.True(errs.HasErrors())
}

func (s *ConfigSuite) TestZeroTotalSlotsRejected() {
	cfg := validConfig()
	cfg.TotalSlots = 0
	s.True(cfg.Validate().HasErrors())
}

func (s *ConfigSuite) TestHorizonRequiresOptimizerParameters() {
	cfg := validConfig()
	cfg.Constants.Horizon = 3
	cfg.Constants.Population = 0
	cfg.Constants.Generations = 0
	errs := cfg.Validate()
	s.True(errs.HasErrors())
}

func (s *ConfigSuite) TestArrivalModelTagged() {
	cases := []struct {
		name    string
		model   ArrivalModel
		wantErr bool
	}{
		{"valid poisson", ArrivalModel{Type: ArrivalPoisson, Lambda: 2}, false},
		{"negative lambda", ArrivalModel{Type: ArrivalPoisson, Lambda: -1}, true},
		{"valid fixed", ArrivalModel{Type: ArrivalFixed, Value: 10}, false},
		{"valid uniform", ArrivalModel{Type: ArrivalUniform, Min: 1, Max: 2}, false},
		{"uniform max below min", ArrivalModel{Type: ArrivalUniform, Min: 5, Max: 1}, true},
		{"unknown tag", ArrivalModel{Type: "bogus"}, true},
	}
	for _, tc := range cases {
		tc := tc
		s.Run(tc.name, func() {
			errs := tc.model.Validate("arrival_model")
			s.Equal(tc.wantErr, errs.HasErrors())
		})
	}
}

func (s *ConfigSuite) TestHarvestModelTagged() {
	cases := []struct {
		name    string
		model   HarvestModel
		wantErr bool
	}{
		{"valid bernoulli", HarvestModel{Type: HarvestBernoulli, P: 0.5, Value: 1}, false},
		{"bad probability", HarvestModel{Type: HarvestBernoulli, P: 1.5, Value: 1}, true},
		{"valid constant", HarvestModel{Type: HarvestConstant, Value: 1}, false},
		{"valid gaussian", HarvestModel{Type: HarvestGaussian, Mean: 1, Std: 0.1}, false},
		{"negative std", HarvestModel{Type: HarvestGaussian, Mean: 1, Std: -1}, true},
	}
	for _, tc := range cases {
		tc := tc
		s.Run(tc.name, func() {
			errs := tc.model.Validate("harvest_model")
			s.Equal(tc.wantErr, errs.HasErrors())
		})
	}
}

func (s *ConfigSuite) TestFloorClampsToEpsilon() {
	s.Equal(Epsilon, Floor(0))
	s.Equal(Epsilon, Floor(-5))
	s.Equal(5.0, Floor(5))
}
