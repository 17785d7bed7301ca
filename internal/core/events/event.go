package events

import (
	"strings"

	. "github.com/bbr111/byd-hvs/internal/core/domain"
	"github.com/bbr111/byd-hvs/pkg/bydhvs"
)

func SnapshotToUpdateEvents(snap *bydhvs.Snapshot) []any {
	var events []any

	// State of charge
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_SOC,
		},
		Value:    snap.SOC,
		Decimals: 1,
	})
	// State of health
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_SOH,
		},
		Value:    snap.SOH,
		Decimals: 1,
	})
	// Pack voltage
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_PACK_VOLTAGE,
		},
		Value:    float64(snap.PackVoltageMilliV) / 1000,
		Decimals: 2,
	})
	// Pack current
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_PACK_CURRENT,
		},
		Value:    float64(snap.PackCurrentMilliA) / 1000,
		Decimals: 1,
	})
	// Power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_POWER,
		},
		Value:    snap.PowerWatt,
		Decimals: 1,
	})
	// Output voltage
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_OUTPUT_VOLTAGE,
		},
		Value:    float64(snap.OutputVoltageMilliV) / 1000,
		Decimals: 2,
	})
	// Max allowed pack voltage
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_MAX_VOLTAGE,
		},
		Value:    float64(snap.MaxVoltageMilliV) / 1000,
		Decimals: 2,
	})
	// Min allowed pack voltage
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_MIN_VOLTAGE,
		},
		Value:    float64(snap.MinVoltageMilliV) / 1000,
		Decimals: 2,
	})
	// Max temperature
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_MAX_TEMPERATURE,
		},
		Value:    float64(snap.MaxTempC),
		Decimals: 0,
	})
	// Min temperature
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_MIN_TEMPERATURE,
		},
		Value:    float64(snap.MinTempC),
		Decimals: 0,
	})
	// Charge/discharge totals
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_CHARGE_TOTAL,
		},
		Value:    snap.Counters["charge_total_ah"],
		Decimals: 1,
	})
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_DISCHARGE_TOTAL,
		},
		Value:    snap.Counters["discharge_total_ah"],
		Decimals: 1,
	})
	// Error flags
	errorsText := "none"
	if len(snap.ErrorFlags) > 0 {
		errorsText = strings.Join(snap.ErrorFlags, ", ")
	}
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_ERRORS,
		},
		Value: errorsText,
	})

	for i := range snap.Towers {
		events = append(events, TowerToUpdateEvents(&snap.Towers[i])...)
	}

	return events
}

func TowerToUpdateEvents(tower *bydhvs.Tower) []any {
	var events []any

	voltage := func(base string, milliV int) {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: TowerSensorId(tower.Index, base),
			},
			Value:    float64(milliV) / 1000,
			Decimals: 3,
		})
	}
	temperature := func(base string, tempC int) {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: TowerSensorId(tower.Index, base),
			},
			Value:    float64(tempC),
			Decimals: 0,
		})
	}

	voltage("max_cell_voltage", tower.MaxCellVoltageMilliV)
	voltage("min_cell_voltage", tower.MinCellVoltageMilliV)
	voltage("avg_cell_voltage", tower.AvgCellVoltageMilliV)
	temperature("max_cell_temperature", tower.MaxCellTempC)
	temperature("min_cell_temperature", tower.MinCellTempC)
	temperature("avg_cell_temperature", tower.AvgCellTempC)

	return events
}

func SnapshotToDiagnosticUpdateEvents(snap *bydhvs.Snapshot) []any {
	var events []any

	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_PARAM_T,
		},
		Value: snap.ParamT,
	})
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_GRID_TYPE,
		},
		Value: bydhvs.GridTypeName(snap.Identity.GridType),
	})
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_SERIAL,
		},
		Value: snap.Identity.Serial,
	})

	for i := range snap.Towers {
		tower := &snap.Towers[i]
		cellNumber := func(base string, cellNo int) {
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{
					Id: TowerSensorId(tower.Index, base),
				},
				Value:    float64(cellNo),
				Decimals: 0,
			})
		}
		cellNumber("max_voltage_cell", tower.MaxCellVoltageCellNo)
		cellNumber("min_voltage_cell", tower.MinCellVoltageCellNo)
		cellNumber("max_temperature_cell", tower.MaxCellTempCellNo)
		cellNumber("min_temperature_cell", tower.MinCellTempCellNo)
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: TowerSensorId(tower.Index, "balancing_cells"),
			},
			Value:    float64(tower.BalancingCellCount),
			Decimals: 0,
		})
	}

	return events
}

func SnapshotToCellVoltageUpdateEvents(snap *bydhvs.Snapshot) []any {
	var events []any

	for i := range snap.Towers {
		tower := &snap.Towers[i]
		for j := range tower.Modules {
			module := &tower.Modules[j]
			for k, milliV := range module.CellVoltagesMilliV {
				events = append(events, FloatSensorUpdateEvent{
					SensorUpdateEventMixIn: SensorUpdateEventMixIn{
						Id: CellVoltageSensorId(tower.Index, module.Index, k+1),
					},
					Value:    float64(milliV) / 1000,
					Decimals: 3,
				})
			}
		}
	}

	return events
}

func SnapshotToCellTemperatureUpdateEvents(snap *bydhvs.Snapshot) []any {
	var events []any

	for i := range snap.Towers {
		tower := &snap.Towers[i]
		for j := range tower.Modules {
			module := &tower.Modules[j]
			for k, tempC := range module.CellTemperaturesC {
				events = append(events, FloatSensorUpdateEvent{
					SensorUpdateEventMixIn: SensorUpdateEventMixIn{
						Id: CellTemperatureSensorId(tower.Index, module.Index, k+1),
					},
					Value:    float64(tempC),
					Decimals: 0,
				})
			}
		}
	}

	return events
}

func BridgeStateToUpdateEvent(connected bool) any {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: connected,
	}
}
