package device

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterFloat(t *testing.T) {
	var tests = []struct {
		name     string
		given    interface{}
		expected *float64
	}{
		{name: "float", given: 42.5, expected: pointer(42.5)},
		{name: "int", given: 3, expected: pointer(3)},
		{name: "numeric string", given: " 61.0", expected: pointer(61)},
		{name: "json number", given: json.Number("12"), expected: pointer(12)},
		{name: "text", given: "ONLINE", expected: nil},
		{name: "nil", given: nil, expected: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Register{Value: tt.given}.Float())
		})
	}
}

func TestDeviceOnline(t *testing.T) {
	assert.True(t, Device{DeviceStatus: "ONLINE"}.Online())
	assert.False(t, Device{DeviceStatus: "OFFLINE"}.Online())
	assert.Equal(t, "HiTemp Water Heater", Device{}.Name())
	assert.Equal(t, "garage", Device{DeviceNickName: "garage"}.Name())
}

func pointer(f float64) *float64 {
	return &f
}
