package mqtt

// Device groups the sensor under one home assistant device entry.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

// DiscoveryPayload announces the battery sensor to home assistant. It is
// retained on the config topic so the sensor survives a broker or home
// assistant restart.
type DiscoveryPayload struct {
	Name              string `json:"name"`
	StateTopic        string `json:"state_topic"`
	UnitOfMeasurement string `json:"unit_of_measurement"`
	DeviceClass       string `json:"device_class"`
	UniqueId          string `json:"unique_id"`
	Device            Device `json:"device"`
}

func discoveryTopic(uniqueId string) string {
	return "homeassistant/sensor/" + uniqueId + "/config"
}
