package util

import (
	"github.com/bbr111/byd-hvs/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Battery: config.BatteryTCPConfig{
			Host:          "-.-.-.-",
			Port:          8080,
			TimeoutMillis: 5000,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "bydhvs",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalSeconds: 60,
			ShowCellVoltage:     true,
			ShowCellTemperature: true,
			ShowDiagnostics:     true,
		},
		Port: 8081,
	}
}
