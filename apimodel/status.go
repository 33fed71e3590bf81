package apimodel

type FrameStatus struct {
	Version      string `json:"version"`
	Panel        string `json:"panel"`
	LastRefresh  string `json:"last_refresh,omitempty"`
	LastError    string `json:"last_error,omitempty"`
	BatteryLevel int64  `json:"battery_level"`
	PowerPlugged bool   `json:"power_plugged"`
	NextWake     string `json:"next_wake,omitempty"`
}
