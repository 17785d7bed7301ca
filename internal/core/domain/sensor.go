package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/bbr111/byd-hvs/pkg/bydhvs"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE             = "bridge"
	SENSOR_ID_BATTERY_SOC              = "battery_soc"
	SENSOR_ID_BATTERY_SOH              = "battery_soh"
	SENSOR_ID_BATTERY_PACK_VOLTAGE     = "battery_pack_voltage"
	SENSOR_ID_BATTERY_PACK_CURRENT     = "battery_pack_current"
	SENSOR_ID_BATTERY_POWER            = "battery_power"
	SENSOR_ID_BATTERY_OUTPUT_VOLTAGE   = "battery_output_voltage"
	SENSOR_ID_BATTERY_MAX_VOLTAGE      = "battery_max_voltage"
	SENSOR_ID_BATTERY_MIN_VOLTAGE      = "battery_min_voltage"
	SENSOR_ID_BATTERY_MAX_TEMPERATURE  = "battery_max_temperature"
	SENSOR_ID_BATTERY_MIN_TEMPERATURE  = "battery_min_temperature"
	SENSOR_ID_BATTERY_CHARGE_TOTAL     = "battery_charge_total"
	SENSOR_ID_BATTERY_DISCHARGE_TOTAL  = "battery_discharge_total"
	SENSOR_ID_BATTERY_ERRORS           = "battery_errors"
	SENSOR_ID_BATTERY_PARAM_T          = "battery_param_t"
	SENSOR_ID_BATTERY_GRID_TYPE        = "battery_grid_type"
	SENSOR_ID_BATTERY_SERIAL           = "battery_serial"
	STATE_CLASS_MEASUREMENT            = "measurement"
	STATE_CLASS_TOTAL_INCREASING       = "total_increasing"
	DEVICE_CLASS_BATTERY               = "battery"
	DEVICE_CLASS_CURRENT               = "current"
	DEVICE_CLASS_POWER                 = "power"
	DEVICE_CLASS_TEMPERATURE           = "temperature"
	DEVICE_CLASS_VOLTAGE               = "voltage"
	DEVICE_CLASS_CONNECTIVITY          = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC            = "diagnostic"
	SENSOR_TYPE_SENSOR                 = "sensor"
	SENSOR_TYPE_BINARY                 = "binary_sensor"
)

// TowerSensorId builds the id of a per-tower sensor. Towers are 1-based.
func TowerSensorId(tower int, base string) string {
	return fmt.Sprintf("tower%d_%s", tower, base)
}

// CellVoltageSensorId builds the id of a single cell voltage sensor.
func CellVoltageSensorId(tower, module, cell int) string {
	return fmt.Sprintf("tower%d_module%d_cell%02d_voltage", tower, module, cell)
}

// CellTemperatureSensorId builds the id of a single temperature probe sensor.
func CellTemperatureSensorId(tower, module, probe int) string {
	return fmt.Sprintf("tower%d_module%d_temp%02d", tower, module, probe)
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("bydhvs_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "bbr111",
		Model:        "BYD HVS Bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("BYD Bridge %s", md5HashShort(baseTopic)),
	}
}

func BatteryDevice(info *bydhvs.Identity) Device {
	return Device{
		Id:           fmt.Sprintf("byd_battery_%s", md5HashShort(info.Serial)),
		Version:      info.BMSFirmware,
		Manufacturer: "BYD",
		Model:        fmt.Sprintf("Battery-Box Premium %s", info.Variant),
		Name:         fmt.Sprintf("BYD %s %s", info.Variant, md5HashShort(info.Serial)),
	}
}

func TowerDevice(batteryDevice Device, tower int) Device {
	return Device{
		Id:           fmt.Sprintf("%s_tower%d", batteryDevice.Id, tower),
		Manufacturer: "BYD",
		Model:        "Battery tower",
		Name:         fmt.Sprintf("%s tower %d", batteryDevice.Name, tower),
		ViaDevice:    batteryDevice.Id,
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func BatteryBaseSensors(batteryDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// State of charge
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_SOC,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "State of charge",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: "%",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_SOC),
	})

	// State of health
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_SOH,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "State of health",
		StateClass:        STATE_CLASS_MEASUREMENT,
		UnitOfMeasurement: "%",
		Icon:              "mdi:battery-heart-variant",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_SOH),
	})

	// Pack voltage
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_PACK_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Pack voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_PACK_VOLTAGE),
	})

	// Pack current (positive while charging)
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_PACK_CURRENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Pack current",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_PACK_CURRENT),
	})

	// Power
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "W",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_POWER),
	})

	// Output voltage
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_OUTPUT_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Output voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_OUTPUT_VOLTAGE),
	})

	// Max allowed pack voltage
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_MAX_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Max voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_MAX_VOLTAGE),
	})

	// Min allowed pack voltage
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_MIN_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Min voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_MIN_VOLTAGE),
	})

	// Max temperature
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_MAX_TEMPERATURE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Max temperature",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_TEMPERATURE,
		UnitOfMeasurement: "°C",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_MAX_TEMPERATURE),
	})

	// Min temperature
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_MIN_TEMPERATURE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Min temperature",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_TEMPERATURE,
		UnitOfMeasurement: "°C",
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_MIN_TEMPERATURE),
	})

	// Total charge
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_CHARGE_TOTAL,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Total charge",
		StateClass:        STATE_CLASS_TOTAL_INCREASING,
		UnitOfMeasurement: "Ah",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_CHARGE_TOTAL),
	})

	// Total discharge
	sensors = append(sensors, GenericSensor{
		Device:            batteryDevice,
		Id:                SENSOR_ID_BATTERY_DISCHARGE_TOTAL,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Total discharge",
		StateClass:        STATE_CLASS_TOTAL_INCREASING,
		UnitOfMeasurement: "Ah",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_DISCHARGE_TOTAL),
	})

	// Errors
	sensors = append(sensors, GenericSensor{
		Device:         batteryDevice,
		Id:             SENSOR_ID_BATTERY_ERRORS,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Errors",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		Icon:           "mdi:alert-circle-outline",
		UniqueId:       uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_ERRORS),
	})

	return sensors
}

func BatteryDiagnosticSensors(batteryDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// BMU parameter table version
	sensors = append(sensors, GenericSensor{
		Device:         batteryDevice,
		Id:             SENSOR_ID_BATTERY_PARAM_T,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Parameter table",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_PARAM_T),
	})

	// Grid type
	sensors = append(sensors, GenericSensor{
		Device:         batteryDevice,
		Id:             SENSOR_ID_BATTERY_GRID_TYPE,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Grid type",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_GRID_TYPE),
	})

	// Serial number
	sensors = append(sensors, GenericSensor{
		Device:         batteryDevice,
		Id:             SENSOR_ID_BATTERY_SERIAL,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Serial number",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(batteryDevice.Id, SENSOR_ID_BATTERY_SERIAL),
	})

	return sensors
}

func TowerSensors(towerDevice Device, tower int, diagnostics bool) []GenericSensor {

	var sensors []GenericSensor

	voltage := func(base, name string) GenericSensor {
		id := TowerSensorId(tower, base)
		return GenericSensor{
			Device:            towerDevice,
			Id:                id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              name,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_VOLTAGE,
			UnitOfMeasurement: "V",
			UniqueId:          uniqueId(towerDevice.Id, id),
		}
	}
	temperature := func(base, name string) GenericSensor {
		id := TowerSensorId(tower, base)
		return GenericSensor{
			Device:            towerDevice,
			Id:                id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              name,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_TEMPERATURE,
			UnitOfMeasurement: "°C",
			UniqueId:          uniqueId(towerDevice.Id, id),
		}
	}

	sensors = append(sensors,
		voltage("max_cell_voltage", "Max cell voltage"),
		voltage("min_cell_voltage", "Min cell voltage"),
		voltage("avg_cell_voltage", "Average cell voltage"),
		temperature("max_cell_temperature", "Max cell temperature"),
		temperature("min_cell_temperature", "Min cell temperature"),
		temperature("avg_cell_temperature", "Average cell temperature"),
	)

	if diagnostics {
		cellNumber := func(base, name string) GenericSensor {
			id := TowerSensorId(tower, base)
			return GenericSensor{
				Device:         towerDevice,
				Id:             id,
				SensorType:     SENSOR_TYPE_SENSOR,
				Name:           name,
				EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
				UniqueId:       uniqueId(towerDevice.Id, id),
			}
		}
		sensors = append(sensors,
			cellNumber("max_voltage_cell", "Max voltage cell number"),
			cellNumber("min_voltage_cell", "Min voltage cell number"),
			cellNumber("max_temperature_cell", "Max temperature cell number"),
			cellNumber("min_temperature_cell", "Min temperature cell number"),
		)
		balancing := TowerSensorId(tower, "balancing_cells")
		sensors = append(sensors, GenericSensor{
			Device:         towerDevice,
			Id:             balancing,
			SensorType:     SENSOR_TYPE_SENSOR,
			Name:           "Balancing cells",
			StateClass:     STATE_CLASS_MEASUREMENT,
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			Icon:           "mdi:scale-balance",
			UniqueId:       uniqueId(towerDevice.Id, balancing),
		})
	}

	return sensors
}

func CellVoltageSensors(towerDevice Device, tower int, info *bydhvs.Identity) []GenericSensor {

	var sensors []GenericSensor

	for module := 1; module <= info.ModulesPerTower; module++ {
		for cell := 1; cell <= info.CellsPerModule; cell++ {
			id := CellVoltageSensorId(tower, module, cell)
			sensors = append(sensors, GenericSensor{
				Device:            towerDevice,
				Id:                id,
				SensorType:        SENSOR_TYPE_SENSOR,
				Name:              fmt.Sprintf("Module %d cell %d voltage", module, cell),
				StateClass:        STATE_CLASS_MEASUREMENT,
				DeviceClass:       DEVICE_CLASS_VOLTAGE,
				UnitOfMeasurement: "V",
				EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
				EnabledByDefault:  optionalBool(false),
				UniqueId:          uniqueId(towerDevice.Id, id),
			})
		}
	}

	return sensors
}

func CellTemperatureSensors(towerDevice Device, tower int, info *bydhvs.Identity) []GenericSensor {

	var sensors []GenericSensor

	for module := 1; module <= info.ModulesPerTower; module++ {
		for probe := 1; probe <= info.TempsPerModule; probe++ {
			id := CellTemperatureSensorId(tower, module, probe)
			sensors = append(sensors, GenericSensor{
				Device:            towerDevice,
				Id:                id,
				SensorType:        SENSOR_TYPE_SENSOR,
				Name:              fmt.Sprintf("Module %d temperature %d", module, probe),
				StateClass:        STATE_CLASS_MEASUREMENT,
				DeviceClass:       DEVICE_CLASS_TEMPERATURE,
				UnitOfMeasurement: "°C",
				EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
				EnabledByDefault:  optionalBool(false),
				UniqueId:          uniqueId(towerDevice.Id, id),
			})
		}
	}

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
