package state

import (
	"math"
	"sync"

	"github.com/nergy-se/hitemp/pkg/api/v1/device"
	"github.com/nergy-se/hitemp/pkg/catalog"
)

// Store holds the latest successfully read snapshot. It is only replaced as a whole.
type Store struct {
	devices   []device.Device
	registers map[string]map[string]device.Register
	mutex     sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		registers: make(map[string]map[string]device.Register),
	}
}

// Replace swaps the entire snapshot. Devices missing from devices disappear.
func (s *Store) Replace(devices []device.Device, registers map[string]map[string]device.Register) {
	devs := append([]device.Device(nil), devices...)
	regs := make(map[string]map[string]device.Register, len(registers))
	for code, params := range registers {
		regs[code] = params
	}

	s.mutex.Lock()
	s.devices = devs
	s.registers = regs
	s.mutex.Unlock()
}

// Get returns the raw value of a register.
func (s *Store) Get(deviceCode, code string) (interface{}, bool) {
	r, ok := s.Register(deviceCode, code)
	if !ok || r.Value == nil {
		return nil, false
	}
	return r.Value, true
}

func (s *Store) Register(deviceCode, code string) (device.Register, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	r, ok := s.registers[deviceCode][code]
	return r, ok
}

// Float returns the numeric value of a register or nil if absent or not numeric.
func (s *Store) Float(deviceCode, code string) *float64 {
	r, ok := s.Register(deviceCode, code)
	if !ok {
		return nil
	}
	return r.Float()
}

func (s *Store) GetDevice(deviceCode string) *device.Device {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, d := range s.devices {
		if d.DeviceCode == deviceCode {
			dev := d
			return &dev
		}
	}
	return nil
}

func (s *Store) Devices() []device.Device {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]device.Device(nil), s.devices...)
}

// State derives the register based part of the device summary.
func (s *Store) State(deviceCode string) State {
	st := State{
		Ambient:         s.Float(deviceCode, catalog.AmbientCode),
		Bottom:          s.Float(deviceCode, catalog.BottomCode),
		Top:             s.Float(deviceCode, catalog.TopCode),
		Setpoint:        s.Float(deviceCode, catalog.SetpointCode),
		CompressorSpeed: s.Float(deviceCode, catalog.CompressorSpeedCode),
		Power:           s.flag(deviceCode, catalog.PowerCode),
		Compressor:      s.flag(deviceCode, catalog.CompressorCode),
		Heater:          s.flag(deviceCode, catalog.HeaterCode),
		Defrost:         s.flag(deviceCode, catalog.DefrostCode),
	}
	if d := s.GetDevice(deviceCode); d != nil {
		online := d.Online()
		st.Online = &online
	}
	if st.Bottom != nil && st.Top != nil {
		avg := (*st.Bottom + *st.Top) / 2
		st.Average = &avg
	}
	if st.Bottom != nil && st.Ambient != nil {
		diff := math.Round((*st.Bottom-*st.Ambient)*10) / 10
		st.Difference = &diff
	}
	if mode := s.Float(deviceCode, catalog.ModeCode); mode != nil {
		st.Preset = catalog.Presets[int(*mode)]
	}
	st.Action = action(st)
	return st
}

func (s *Store) flag(deviceCode, code string) *bool {
	f := s.Float(deviceCode, code)
	if f == nil {
		return nil
	}
	b := *f == 1
	return &b
}

func action(st State) string {
	switch {
	case st.Power != nil && !*st.Power:
		return "off"
	case st.Defrost != nil && *st.Defrost:
		return "defrosting"
	case st.Compressor != nil && *st.Compressor, st.Heater != nil && *st.Heater:
		return "heating"
	}
	return "idle"
}
