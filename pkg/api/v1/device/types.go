package device

import (
	"encoding/json"
	"strconv"
	"strings"
)

const StatusOnline = "ONLINE"

type Device struct {
	DeviceCode         string      `json:"deviceCode"`
	DeviceNickName     string      `json:"deviceNickName,omitempty"`
	DeviceStatus       string      `json:"deviceStatus,omitempty"`
	SerialNumber       string      `json:"serialNumber,omitempty"`
	WifiSoftwareVer    string      `json:"wifiSoftwareVer,omitempty"`
	DtuSignalIntensity json.Number `json:"dtuSignalIntensity,omitempty"`
}

func (d Device) Online() bool {
	return d.DeviceStatus == StatusOnline
}

func (d Device) Name() string {
	if d.DeviceNickName == "" {
		return "HiTemp Water Heater"
	}
	return d.DeviceNickName
}

// Register is a single parameter value as reported by the cloud.
// Value is either a number or a string.
type Register struct {
	Value      interface{} `json:"value"`
	RangeStart interface{} `json:"rangeStart,omitempty"`
	RangeEnd   interface{} `json:"rangeEnd,omitempty"`
}

// Float returns the numeric value of the register or nil if it is absent or not numeric.
func (r Register) Float() *float64 {
	return ToFloat(r.Value)
}

func ToFloat(v interface{}) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		var err error
		f, err = t.Float64()
		if err != nil {
			return nil
		}
	case string:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
	default:
		return nil
	}
	return &f
}
