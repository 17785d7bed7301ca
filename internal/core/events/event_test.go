package events

import (
	"context"
	"testing"

	. "github.com/bbr111/byd-hvs/internal/core/domain"
	"github.com/bbr111/byd-hvs/pkg/bydhvs"

	"github.com/stretchr/testify/assert"
)

func testSnapshot(t *testing.T) *bydhvs.Snapshot {
	t.Helper()
	snap, err := bydhvs.CreateTestBatteryReader().Poll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func eventById(events []any, id string) any {
	for _, ev := range events {
		if sev, ok := ev.(SensorUpdateEvent); ok && sev.SensorId() == id {
			return ev
		}
	}
	return nil
}

func TestSnapshotToUpdateEvents(t *testing.T) {

	assert := assert.New(t)

	snap := testSnapshot(t)
	evs := SnapshotToUpdateEvents(snap)

	soc := eventById(evs, SENSOR_ID_BATTERY_SOC).(FloatSensorUpdateEvent)
	assert.Equal(87.0, soc.Value)

	voltage := eventById(evs, SENSOR_ID_BATTERY_PACK_VOLTAGE).(FloatSensorUpdateEvent)
	assert.Equal(211.5, voltage.Value)
	assert.Equal(uint(2), voltage.Decimals)

	current := eventById(evs, SENSOR_ID_BATTERY_PACK_CURRENT).(FloatSensorUpdateEvent)
	assert.Equal(4.2, current.Value)

	charge := eventById(evs, SENSOR_ID_BATTERY_CHARGE_TOTAL).(FloatSensorUpdateEvent)
	assert.Equal(10531.9, charge.Value)

	errorsEv := eventById(evs, SENSOR_ID_BATTERY_ERRORS).(TextSensorUpdateEvent)
	assert.Equal("none", errorsEv.Value)

	towerAvg := eventById(evs, TowerSensorId(1, "avg_cell_voltage")).(FloatSensorUpdateEvent)
	assert.Equal(3.303, towerAvg.Value)
	assert.Equal(uint(3), towerAvg.Decimals)
}

func TestSnapshotToUpdateEventsWithErrors(t *testing.T) {

	assert := assert.New(t)

	snap := testSnapshot(t)
	snap.ErrorBits = 0b11
	snap.ErrorFlags = bydhvs.DecodeErrorFlags(snap.ErrorBits)

	evs := SnapshotToUpdateEvents(snap)
	errorsEv := eventById(evs, SENSOR_ID_BATTERY_ERRORS).(TextSensorUpdateEvent)
	assert.NotEqual("none", errorsEv.Value)
	assert.Contains(errorsEv.Value, ", ")
}

func TestSnapshotToDiagnosticUpdateEvents(t *testing.T) {

	assert := assert.New(t)

	snap := testSnapshot(t)
	evs := SnapshotToDiagnosticUpdateEvents(snap)

	serial := eventById(evs, SENSOR_ID_BATTERY_SERIAL).(TextSensorUpdateEvent)
	assert.Equal("P030T020Z1234567890", serial.Value)

	gridType := eventById(evs, SENSOR_ID_BATTERY_GRID_TYPE).(TextSensorUpdateEvent)
	assert.Equal("three phase", gridType.Value)

	maxCell := eventById(evs, TowerSensorId(1, "max_voltage_cell")).(FloatSensorUpdateEvent)
	assert.Equal(7.0, maxCell.Value)
}

func TestSnapshotToCellUpdateEvents(t *testing.T) {

	assert := assert.New(t)

	snap := testSnapshot(t)

	voltEvs := SnapshotToCellVoltageUpdateEvents(snap)
	// 1 tower x 2 modules x 16 cells
	assert.Len(voltEvs, 32)
	first := eventById(voltEvs, CellVoltageSensorId(1, 1, 1)).(FloatSensorUpdateEvent)
	assert.Equal(3.3, first.Value)

	tempEvs := SnapshotToCellTemperatureUpdateEvents(snap)
	// 1 tower x 2 modules x 8 probes
	assert.Len(tempEvs, 16)
	probe := eventById(tempEvs, CellTemperatureSensorId(1, 2, 2)).(FloatSensorUpdateEvent)
	assert.Equal(22.0, probe.Value)
}

func TestBridgeStateToUpdateEvent(t *testing.T) {

	assert := assert.New(t)

	ev := BridgeStateToUpdateEvent(true).(BridgeStateUpdateEvent)
	assert.True(ev.Value)
	assert.Equal(SENSOR_ID_BRIDGE_STATE, ev.SensorId())
}
