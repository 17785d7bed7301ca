package bydhvs

import (
	"context"
	"time"
)

// CreateTestBatteryReader returns a reader with canned data for tests and
// dry runs without a battery on the network.
func CreateTestBatteryReader() BatteryReader {
	return TestBatteryReader{}
}

type TestBatteryReader struct {
}

func (r TestBatteryReader) Poll(ctx context.Context) (*Snapshot, error) {
	id := Identity{
		Serial:          "P030T020Z1234567890",
		Variant:         VariantHVS,
		BMUFirmwareA:    "V3.16",
		BMUFirmwareB:    "V3.16",
		BMSFirmware:     "V3.21",
		GridType:        1,
		Towers:          1,
		ModulesPerTower: 2,
		CellsPerModule:  16,
		TempsPerModule:  8,
	}
	tower := Tower{
		Index:                1,
		MaxCellVoltageMilliV: 3312,
		MinCellVoltageMilliV: 3295,
		AvgCellVoltageMilliV: 3303,
		MaxCellVoltageCellNo: 7,
		MinCellVoltageCellNo: 21,
		MaxCellTempC:         24,
		MinCellTempC:         21,
		AvgCellTempC:         22,
		MaxCellTempCellNo:    4,
		MinCellTempCellNo:    12,
	}
	for m := 1; m <= id.ModulesPerTower; m++ {
		mod := Module{Index: m}
		for c := 0; c < id.CellsPerModule; c++ {
			mod.CellVoltagesMilliV = append(mod.CellVoltagesMilliV, 3300+c%13)
		}
		for c := 0; c < id.TempsPerModule; c++ {
			mod.CellTemperaturesC = append(mod.CellTemperaturesC, 21+c%4)
		}
		tower.Modules = append(tower.Modules, mod)
	}
	return &Snapshot{
		Taken:               time.Now(),
		Identity:            id,
		SOC:                 87,
		SOH:                 99,
		PackVoltageMilliV:   211_500,
		PackCurrentMilliA:   4_200,
		PowerWatt:           888.3,
		MaxVoltageMilliV:    212_000,
		MinVoltageMilliV:    210_900,
		OutputVoltageMilliV: 211_300,
		MaxTempC:            24,
		MinTempC:            21,
		PackTempC:           22,
		ParamT:              "V1.4",
		Counters: map[string]float64{
			"charge_total_ah":    10531.9,
			"discharge_total_ah": 10289.4,
		},
		Towers: []Tower{tower},
	}, nil
}
