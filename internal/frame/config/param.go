package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

// ConfigError reports a missing or malformed param file value.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func paramError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Err: errors.New(message)}
}

type FrameParam struct {
	DisplayParam DisplayParam `yaml:"display"`
	SourceParam  SourceParam  `yaml:"image_source"`
	MqttParam    *MqttParam   `yaml:"mqtt,omitempty"`
	PowerParam   *PowerParam  `yaml:"power,omitempty"`
	ApiParam     ApiParam     `yaml:"api"`
}

type DisplayParam struct {
	Panel    string `yaml:"panel"`
	Rotation int64  `yaml:"rotation"`
	Fit      string `yaml:"fit"`
	Color    string `yaml:"color,omitempty"`
	Output   string `yaml:"output,omitempty"`
	Width    int64  `yaml:"width,omitempty"`
	Height   int64  `yaml:"height,omitempty"`
}

type SourceParam struct {
	Path           string `yaml:"path,omitempty"`
	Url            string `yaml:"url,omitempty"`
	TimeoutSeconds int64  `yaml:"timeout_seconds"`
}

type MqttParam struct {
	Host               string `yaml:"host"`
	Port               int64  `yaml:"port"`
	ClientId           string `yaml:"client_id,omitempty"`
	Username           string `yaml:"username,omitempty"`
	Password           string `yaml:"password,omitempty"`
	SensorName         string `yaml:"sensor_name,omitempty"`
	UniqueId           string `yaml:"unique_id,omitempty"`
	StateTopic         string `yaml:"state_topic,omitempty"`
	DeviceName         string `yaml:"device_name,omitempty"`
	DeviceModel        string `yaml:"device_model,omitempty"`
	DeviceManufacturer string `yaml:"device_manufacturer,omitempty"`
}

type PowerParam struct {
	Address           string `yaml:"address"`
	TimeoutSeconds    int64  `yaml:"timeout_seconds"`
	AlarmMinutes      int64  `yaml:"alarm_minutes"`
	NoShutdown        bool   `yaml:"no_shutdown"`
	LowBatteryCard    int64  `yaml:"low_battery_card"`
	OnlineProbeUrl    string `yaml:"online_probe_url,omitempty"`
	OnlineWaitSeconds int64  `yaml:"online_wait_seconds"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

// applyDefaults fills the optional fields the param file may omit.
func (p *FrameParam) applyDefaults() {
	if p.DisplayParam.Fit == "" {
		p.DisplayParam.Fit = "cover"
	}
	if p.SourceParam.TimeoutSeconds <= 0 {
		p.SourceParam.TimeoutSeconds = 10
	}
	if p.MqttParam != nil {
		m := p.MqttParam
		if m.Port <= 0 {
			m.Port = 1883
		}
		if m.ClientId == "" {
			m.ClientId = "inkframe"
		}
		if m.UniqueId == "" {
			m.UniqueId = "pisugar_battery"
		}
		if m.SensorName == "" {
			m.SensorName = "PiSugar Battery"
		}
		if m.StateTopic == "" {
			m.StateTopic = "homeassistant/sensor/" + m.UniqueId + "/state"
		}
		if m.DeviceName == "" {
			m.DeviceName = "PiSugar UPS"
		}
		if m.DeviceModel == "" {
			m.DeviceModel = "PiSugar3"
		}
		if m.DeviceManufacturer == "" {
			m.DeviceManufacturer = "PiSugar"
		}
	}
	if p.PowerParam != nil {
		w := p.PowerParam
		if w.Address == "" {
			w.Address = "127.0.0.1:8423"
		}
		if w.TimeoutSeconds <= 0 {
			w.TimeoutSeconds = 5
		}
		if w.AlarmMinutes <= 0 {
			w.AlarmMinutes = 20
		}
		if w.OnlineProbeUrl == "" {
			w.OnlineProbeUrl = "http://clients3.google.com/generate_204"
		}
		if w.OnlineWaitSeconds <= 0 {
			w.OnlineWaitSeconds = 120
		}
	}
	if p.ApiParam.SslPort <= 0 {
		p.ApiParam.SslPort = 8443
	}
}

func (p *FrameParam) validate() error {
	if p.DisplayParam.Panel == "" {
		return paramError("display.panel", "panel identifier is required")
	}
	switch p.DisplayParam.Rotation {
	case 0, 90, 180, 270:
	default:
		return paramError("display.rotation", "rotation must be 0, 90, 180 or 270")
	}
	switch p.DisplayParam.Fit {
	case "cover", "contain", "stretch":
	default:
		return paramError("display.fit", "fit must be cover, contain or stretch")
	}
	if p.SourceParam.Path == "" && p.SourceParam.Url == "" {
		return paramError("image_source", "either path or url must be set")
	}
	if p.SourceParam.Path != "" && p.SourceParam.Url != "" {
		return paramError("image_source", "path and url are mutually exclusive")
	}
	if p.SourceParam.Url != "" {
		u, err := url.Parse(p.SourceParam.Url)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return paramError("image_source.url", "url must be http or https")
		}
	}
	if p.MqttParam != nil && p.MqttParam.Host == "" {
		return paramError("mqtt.host", "broker host is required")
	}
	if p.ApiParam.Enabled && p.ApiParam.ApiKey == "" {
		return paramError("api.api_key", "api key is required when the api is enabled")
	}
	return nil
}
