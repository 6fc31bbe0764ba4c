// Package export writes a SimulationState to its CSV wire form: Baseline
// rows first (slot-major, sensor-minor), then Predictive rows, with Go's
// default decimal formatting and no locale-specific rules.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
)

// Header is the fixed CSV header row.
var Header = []string{
	"slot", "algorithm", "sensor_id", "H_l", "H_o", "H_k", "alpha",
	"local_energy_J", "tx_energy_J", "battery_J", "arrival_bits", "harvest_J",
}

// WriteCSV streams a SimulationState's Baseline rows, then its Predictive
// rows, to w.
func WriteCSV(w io.Writer, state models.SimulationState) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, results := range [][]models.SlotResult{state.BaselineResults, state.PredictiveResults} {
		for _, rec := range results {
			for _, sensor := range rec.Sensors {
				if err := writer.Write(row(rec, sensor)); err != nil {
					return err
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func row(rec models.SlotResult, sensor models.SensorSlotResult) []string {
	return []string{
		strconv.Itoa(rec.Slot),
		string(rec.Algorithm),
		sensor.ID,
		formatFloat(sensor.HLocal),
		formatFloat(sensor.HOffload),
		formatFloat(sensor.HEdge),
		formatFloat(sensor.Alpha),
		formatFloat(sensor.LocalEnergyJ),
		formatFloat(sensor.TxEnergyJ),
		formatFloat(sensor.BatteryJ),
		formatFloat(sensor.ArrivalBits),
		formatFloat(sensor.HarvestJ),
	}
}

// formatFloat mirrors Go's default %v rendering for float64 (strconv's
// shortest round-tripping representation), which is what "numbers are
// printed as their default decimal representations" means for this
// runtime.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
