package tele_config

import "time"

const (
	DefaultClientId = "inkmenu"
	DefaultReport   = 5 * time.Minute
)

type Config struct { //nolint:maligned
	Enabled        bool   `hcl:"enable"`
	LogDebug       bool   `hcl:"log_debug"`
	ClientId       string `hcl:"client_id"`
	MqttBroker     string `hcl:"mqtt_broker"`
	MqttUsername   string `hcl:"mqtt_username"`
	MqttPassword   string `hcl:"mqtt_password"`
	MqttLogDebug   bool   `hcl:"mqtt_log_debug"`
	MqttStorePath  string `hcl:"mqtt_store_path"`
	KeepaliveSec   int    `hcl:"keepalive_sec"`
	PingTimeoutSec int    `hcl:"ping_timeout_sec"`
	// Empty path keeps telemetry queue in memory.
	PersistPath       string `hcl:"persist_path"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	// Stat report interval, 0 = default, negative = never.
	ReportSec int `hcl:"report_sec"`
}

func (c *Config) ClientIdOrDefault() string {
	if c.ClientId == "" {
		return DefaultClientId
	}
	return c.ClientId
}

func (c *Config) ReportInterval() time.Duration {
	switch {
	case c.ReportSec == 0:
		return DefaultReport
	case c.ReportSec < 0:
		return 0
	}
	return time.Duration(c.ReportSec) * time.Second
}
