package state

// State is a per-device summary of the snapshot plus derived values, used for metrics and MQTT.
type State struct {
	Online          *bool    `json:"online,omitempty"`
	Available       *bool    `json:"available,omitempty"`
	Power           *bool    `json:"power,omitempty"`
	Preset          string   `json:"preset,omitempty"`
	Action          string   `json:"action,omitempty"`
	Ambient         *float64 `json:"ambient,omitempty"`
	Bottom          *float64 `json:"bottom,omitempty"`
	Top             *float64 `json:"top,omitempty"`
	Average         *float64 `json:"average,omitempty"`
	Difference      *float64 `json:"difference,omitempty"`
	Setpoint        *float64 `json:"setpoint,omitempty"`
	CompressorSpeed *float64 `json:"compressorSpeed,omitempty"`
	Compressor      *bool    `json:"compressor,omitempty"`
	Heater          *bool    `json:"heater,omitempty"`
	Defrost         *bool    `json:"defrost,omitempty"`
	StoredEnergy    *float64 `json:"storedEnergy,omitempty"`
	COP             *float64 `json:"cop,omitempty"`
	BottomTarget    *float64 `json:"bottomTarget,omitempty"`
	MinimumTarget   *float64 `json:"minimumTarget,omitempty"`
}

// Map returns all numeric and boolean values that are set. Booleans are 0/1.
func (s State) Map() map[string]float64 {
	m := make(map[string]float64)
	setBool := func(key string, v *bool) {
		if v != nil {
			m[key] = boolToFloat(*v)
		}
	}
	setFloat := func(key string, v *float64) {
		if v != nil {
			m[key] = *v
		}
	}
	setBool("online", s.Online)
	setBool("available", s.Available)
	setBool("power", s.Power)
	setFloat("ambient", s.Ambient)
	setFloat("bottom", s.Bottom)
	setFloat("top", s.Top)
	setFloat("average", s.Average)
	setFloat("difference", s.Difference)
	setFloat("setpoint", s.Setpoint)
	setFloat("compressorSpeed", s.CompressorSpeed)
	setBool("compressor", s.Compressor)
	setBool("heater", s.Heater)
	setBool("defrost", s.Defrost)
	setFloat("storedEnergy", s.StoredEnergy)
	setFloat("cop", s.COP)
	setFloat("bottomTarget", s.BottomTarget)
	setFloat("minimumTarget", s.MinimumTarget)
	return m
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
