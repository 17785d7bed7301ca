package mqtt

import (
	"testing"

	"github.com/bbr111/byd-hvs/internal/config"
	"github.com/bbr111/byd-hvs/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func testClient() *MQTTClient {
	cfg := config.Config{
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "bydhvs",
			HADiscoveryTopic: "homeassistant",
		},
	}
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestStateTopics(t *testing.T) {

	assert := assert.New(t)

	c := testClient()

	assert.Equal("bydhvs/bridge/state", c.BridgeStateTopic())
	assert.Equal("bydhvs/sensor/battery_soc/state", c.SensorStateTopic("battery_soc"))
	assert.Equal("bydhvs/binary_sensor/bridge/state", c.BinarySensorStateTopic("bridge"))
}

func TestHADiscoverySensorTopic(t *testing.T) {

	assert := assert.New(t)

	sensor := domain.GenericSensor{
		Device:     domain.Device{Id: "byd_battery_abcd1234"},
		Id:         domain.SENSOR_ID_BATTERY_SOC,
		SensorType: domain.SENSOR_TYPE_SENSOR,
	}

	topic := HADiscoverySensorTopic("homeassistant", sensor)
	assert.Equal("homeassistant/sensor/byd_battery_abcd1234/battery_soc/config", topic)
}

func TestGenericSensorToHADiscoveryMessage(t *testing.T) {

	assert := assert.New(t)

	c := testClient()

	sensor := domain.GenericSensor{
		Device: domain.Device{
			Id:           "byd_battery_abcd1234",
			Name:         "BYD HVS abcd1234",
			Manufacturer: "BYD",
		},
		Id:                domain.SENSOR_ID_BATTERY_SOC,
		SensorType:        domain.SENSOR_TYPE_SENSOR,
		Name:              "State of charge",
		StateClass:        domain.STATE_CLASS_MEASUREMENT,
		DeviceClass:       domain.DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: "%",
		UniqueId:          "uid_byd_battery_abcd1234_battery_soc",
	}

	msg := GenericSensorToHADiscoveryMessage(c, sensor)

	assert.Equal("bydhvs/sensor/battery_soc/state", msg.StateTopic)
	assert.Equal("bydhvs/bridge/state", msg.AvTopic)
	assert.Equal([]string{"byd_battery_abcd1234"}, msg.Device.Id)
	assert.Equal("mqtt", msg.Platform)
	assert.Equal("State of charge", msg.Name)
	assert.Empty(msg.PayloadOn)
}

func TestBridgeSensorToHADiscoveryMessage(t *testing.T) {

	assert := assert.New(t)

	c := testClient()

	sensor := domain.BridgeSensors(domain.BridgeDevice("bydhvs"))[0]
	msg := GenericSensorToHADiscoveryMessage(c, sensor)

	assert.Equal("bydhvs/bridge/state", msg.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(MQTT_PAYLOAD_OFFLINE, msg.PayloadOff)
}
