// Package catalog holds the static parameter metadata of the HiTemp PV300 controller.
package catalog

import (
	"fmt"
	"sort"
)

const (
	PowerCode           = "Power"
	ModeCode            = "mode_real"
	SetpointCode        = "R01"
	AmbientCode         = "T01"
	BottomCode          = "T02"
	TopCode             = "T03"
	CompressorCode      = "O01"
	HeaterCode          = "O02"
	DefrostCode         = "O14"
	CompressorSpeedCode = "O29"

	// legal range of R01
	SetpointMin = 38.0
	SetpointMax = 75.0
)

// Presets maps mode_real values to preset names.
var Presets = map[int]string{
	0: "intelligent",
	2: "eco",
	3: "hybrid",
	4: "fast",
}

type ParamDef struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Unit     string   `json:"unit,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Writable bool     `json:"writable"`
	Category string   `json:"category"`
}

// Validate checks that value may be written to the parameter.
func (p ParamDef) Validate(value float64) error {
	if !p.Writable {
		return fmt.Errorf("parameter %s is read only", p.Code)
	}
	if p.Min != nil && value < *p.Min {
		return fmt.Errorf("value %g below minimum %g for %s", value, *p.Min, p.Code)
	}
	if p.Max != nil && value > *p.Max {
		return fmt.Errorf("value %g above maximum %g for %s", value, *p.Max, p.Code)
	}
	return nil
}

var params = []ParamDef{
	{Code: "Power", Name: "Power", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "control"},
	{Code: "mode_real", Name: "Operating mode", Unit: "", Min: p(0), Max: p(4), Writable: true, Category: "control"},
	{Code: "Mode", Name: "Operating mode (mirror)", Unit: "", Min: p(0), Max: p(7), Writable: true, Category: "control"},
	{Code: "/01", Name: "Usage of OUT 05", Unit: "", Min: p(0), Max: p(2), Writable: true, Category: "output"},
	{Code: "/02", Name: "Usage of OUT 06", Unit: "", Min: p(0), Max: p(3), Writable: true, Category: "output"},
	{Code: "C01", Name: "Delay timer", Unit: "min", Min: p(0), Max: p(120), Writable: true, Category: "compressor"},
	{Code: "C02", Name: "Min cycle time", Unit: "min", Min: p(20), Max: p(60), Writable: true, Category: "compressor"},
	{Code: "C03", Name: "Max cycle time", Unit: "min", Min: p(30), Max: p(120), Writable: true, Category: "compressor"},
	{Code: "C05", Name: "Run time counter", Unit: "", Min: p(0), Max: p(65535), Writable: true, Category: "compressor"},
	{Code: "C06", Name: "Timer setting C06", Unit: "min", Min: p(0), Max: p(120), Writable: true, Category: "compressor"},
	{Code: "C07", Name: "Timer setting C07", Unit: "min", Min: p(0), Max: p(120), Writable: true, Category: "compressor"},
	{Code: "C08", Name: "Timer setting C08", Unit: "min", Min: p(0), Max: p(120), Writable: true, Category: "compressor"},
	{Code: "C09", Name: "Timer setting C09", Unit: "min", Min: p(0), Max: p(120), Writable: true, Category: "compressor"},
	{Code: "D01", Name: "Defrost start temp", Unit: "°C", Min: p(-30), Max: p(0), Writable: true, Category: "defrost"},
	{Code: "D02", Name: "Defrost end temp", Unit: "°C", Min: p(0), Max: p(30), Writable: true, Category: "defrost"},
	{Code: "D03", Name: "Defrost duration", Unit: "min", Min: p(30), Max: p(90), Writable: true, Category: "defrost"},
	{Code: "D04", Name: "Max defrost duration", Unit: "min", Min: p(1), Max: p(20), Writable: true, Category: "defrost"},
	{Code: "D05", Name: "Min defrost duration", Unit: "min", Min: p(0), Max: p(4), Writable: true, Category: "defrost"},
	{Code: "D06", Name: "Defrost mode", Unit: "", Min: p(0), Max: p(2), Writable: true, Category: "defrost"},
	{Code: "D07", Name: "Intelligent defrost judgement", Unit: "°C", Min: p(-10), Max: p(20), Writable: true, Category: "defrost"},
	{Code: "D10", Name: "Low temp threshold", Unit: "°C", Min: p(-30), Max: p(5), Writable: true, Category: "defrost"},
	{Code: "D11", Name: "Defrost duration setting", Unit: "min", Min: p(5), Max: p(30), Writable: true, Category: "defrost"},
	{Code: "D12", Name: "Temp differential", Unit: "°C", Min: p(0), Max: p(20), Writable: true, Category: "defrost"},
	{Code: "D13", Name: "Min operating temp", Unit: "°C", Min: p(-30), Max: p(0), Writable: true, Category: "defrost"},
	{Code: "E01", Name: "EEV adjustment mode", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "eev"},
	{Code: "E02", Name: "Target superheat", Unit: "°C", Min: p(-20), Max: p(20), Writable: true, Category: "eev"},
	{Code: "E03", Name: "EEV original position", Unit: "", Min: p(0), Max: p(500), Writable: true, Category: "eev"},
	{Code: "E04", Name: "EEV min opening", Unit: "", Min: p(0), Max: p(500), Writable: true, Category: "eev"},
	{Code: "E05", Name: "EEV defrost position", Unit: "", Min: p(0), Max: p(500), Writable: true, Category: "eev"},
	{Code: "E06", Name: "EEV timer setting", Unit: "", Min: p(0), Max: p(480), Writable: true, Category: "eev"},
	{Code: "F01", Name: "Fan mode", Unit: "", Min: p(0), Max: p(4), Writable: true, Category: "fan"},
	{Code: "F02", Name: "Min frequency", Unit: "Hz", Min: p(0), Max: p(1500), Writable: true, Category: "fan"},
	{Code: "F03", Name: "Configuration flags", Unit: "", Min: nil, Max: nil, Writable: true, Category: "fan"},
	{Code: "F04", Name: "Max frequency", Unit: "Hz", Min: p(0), Max: p(1500), Writable: true, Category: "fan"},
	{Code: "F05", Name: "Frequency setting", Unit: "Hz", Min: p(0), Max: p(1500), Writable: true, Category: "fan"},
	{Code: "F06", Name: "Fan start temp", Unit: "°C", Min: p(0), Max: p(50), Writable: true, Category: "fan"},
	{Code: "F07", Name: "Fan max temp", Unit: "°C", Min: p(0), Max: p(50), Writable: true, Category: "fan"},
	{Code: "F09", Name: "Frequency step F09", Unit: "Hz", Min: p(0), Max: p(1500), Writable: true, Category: "fan"},
	{Code: "F10", Name: "Frequency step F10", Unit: "Hz", Min: p(0), Max: p(1500), Writable: true, Category: "fan"},
	{Code: "F11", Name: "Frequency step F11", Unit: "Hz", Min: p(0), Max: p(1500), Writable: true, Category: "fan"},
	{Code: "F12", Name: "Frequency step F12", Unit: "Hz", Min: p(0), Max: p(1500), Writable: true, Category: "fan"},
	{Code: "F13", Name: "Frequency step F13", Unit: "Hz", Min: p(0), Max: p(1500), Writable: true, Category: "fan"},
	{Code: "G01", Name: "Disinfection target temp", Unit: "°C", Min: p(30), Max: p(70), Writable: true, Category: "disinfection"},
	{Code: "G02", Name: "Disinfection duration", Unit: "min", Min: p(0), Max: p(90), Writable: true, Category: "disinfection"},
	{Code: "G03", Name: "Disinfection start hour", Unit: "h", Min: p(0), Max: p(23), Writable: true, Category: "disinfection"},
	{Code: "G04", Name: "Disinfection interval", Unit: "days", Min: p(1), Max: p(99), Writable: true, Category: "disinfection"},
	{Code: "H01", Name: "Remember status on power down", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "heater"},
	{Code: "H03", Name: "Heating source", Unit: "", Min: p(0), Max: p(0), Writable: true, Category: "heater"},
	{Code: "H07", Name: "Temperature unit", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "heater"},
	{Code: "H09", Name: "Heater option", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "heater"},
	{Code: "H16", Name: "Heater power level", Unit: "", Min: p(0), Max: p(10), Writable: true, Category: "heater"},
	{Code: "H30", Name: "Device address", Unit: "", Min: p(1), Max: p(255), Writable: true, Category: "heater"},
	{Code: "H31", Name: "Intelligent control mode", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "heater"},
	{Code: "H32", Name: "Cloud submit interval", Unit: "min", Min: p(1), Max: p(255), Writable: true, Category: "heater"},
	{Code: "H98", Name: "Target temp range", Unit: "", Min: p(2), Max: p(3), Writable: true, Category: "heater"},
	{Code: "H99", Name: "Shown temp compensation", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "heater"},
	{Code: "L02", Name: "Year (20XX)", Unit: "year", Min: p(20), Max: p(99), Writable: true, Category: "timer"},
	{Code: "L03", Name: "Month", Unit: "month", Min: p(1), Max: p(12), Writable: true, Category: "timer"},
	{Code: "L04", Name: "Day", Unit: "day", Min: p(1), Max: p(31), Writable: true, Category: "timer"},
	{Code: "L06", Name: "Timer 1 start hour", Unit: "h", Min: p(0), Max: p(23), Writable: true, Category: "timer"},
	{Code: "L07", Name: "Timer 1 start minute", Unit: "min", Min: p(0), Max: p(59), Writable: true, Category: "timer"},
	{Code: "L08", Name: "Timer 1 end hour", Unit: "h", Min: p(0), Max: p(23), Writable: true, Category: "timer"},
	{Code: "L09", Name: "Timer 1 end minute", Unit: "min", Min: p(0), Max: p(59), Writable: true, Category: "timer"},
	{Code: "L10", Name: "Timer 2 start hour", Unit: "h", Min: p(0), Max: p(23), Writable: true, Category: "timer"},
	{Code: "L11", Name: "Timer 2 start minute", Unit: "min", Min: p(0), Max: p(59), Writable: true, Category: "timer"},
	{Code: "L12", Name: "Timer 2 end hour", Unit: "h", Min: p(0), Max: p(23), Writable: true, Category: "timer"},
	{Code: "L13", Name: "Timer 2 end minute", Unit: "min", Min: p(0), Max: p(59), Writable: true, Category: "timer"},
	{Code: "L28", Name: "Schedule flags", Unit: "", Min: nil, Max: nil, Writable: true, Category: "timer"},
	{Code: "L29", Name: "Timer config", Unit: "", Min: p(0), Max: p(255), Writable: true, Category: "timer"},
	{Code: "L30", Name: "Timer status", Unit: "", Min: nil, Max: nil, Writable: false, Category: "timer"},
	{Code: "L31", Name: "Timer counter L31", Unit: "", Min: nil, Max: nil, Writable: false, Category: "timer"},
	{Code: "L32", Name: "Timer counter L32", Unit: "", Min: nil, Max: nil, Writable: false, Category: "timer"},
	{Code: "M06", Name: "Mode setting M06", Unit: "", Min: p(1), Max: p(2), Writable: true, Category: "mode"},
	{Code: "M07", Name: "Enable flag M07", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "mode"},
	{Code: "M12", Name: "Device time minute", Unit: "min", Min: p(0), Max: p(59), Writable: true, Category: "mode"},
	{Code: "M13", Name: "Device time hour", Unit: "h", Min: p(0), Max: p(23), Writable: true, Category: "mode"},
	{Code: "M14", Name: "Device time day", Unit: "day", Min: p(1), Max: p(31), Writable: true, Category: "mode"},
	{Code: "M15", Name: "Device time month", Unit: "month", Min: p(1), Max: p(12), Writable: true, Category: "mode"},
	{Code: "M16", Name: "Device time year", Unit: "year", Min: p(0), Max: p(99), Writable: true, Category: "mode"},
	{Code: "M17", Name: "Fan status", Unit: "", Min: nil, Max: nil, Writable: false, Category: "mode"},
	{Code: "N01", Name: "Solar water pump sensor", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "solar"},
	{Code: "N02", Name: "Solar pump max runtime", Unit: "min", Min: p(1), Max: p(30), Writable: true, Category: "solar"},
	{Code: "N03", Name: "Solar pump temp hysteresis", Unit: "°C", Min: p(0), Max: p(20), Writable: true, Category: "solar"},
	{Code: "N04", Name: "Nighttime temp decrease mode", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "solar"},
	{Code: "N05", Name: "Night decrease start hour", Unit: "h", Min: p(0), Max: p(23), Writable: true, Category: "solar"},
	{Code: "N06", Name: "Night decrease end hour", Unit: "h", Min: p(0), Max: p(23), Writable: true, Category: "solar"},
	{Code: "N07", Name: "Solar temp decrease start", Unit: "°C", Min: p(40), Max: p(90), Writable: true, Category: "solar"},
	{Code: "N08", Name: "Solar temp decrease hysteresis", Unit: "°C", Min: p(1), Max: p(40), Writable: true, Category: "solar"},
	{Code: "N09", Name: "Solar water release temp", Unit: "°C", Min: p(50), Max: p(90), Writable: true, Category: "solar"},
	{Code: "N10", Name: "Solar pump shutdown temp", Unit: "°C", Min: p(50), Max: p(90), Writable: true, Category: "solar"},
	{Code: "N11", Name: "Solar pump working mode", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "solar"},
	{Code: "O01", Name: "Compressor", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O02", Name: "Electrical heater", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O03", Name: "4-way valve", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O04", Name: "Fan high speed", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O05", Name: "Fan low speed", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O06", Name: "Solar pump/valve", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O07", Name: "EEV current position", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O08", Name: "Compressor runtime", Unit: "h", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O09", Name: "Booster runtime", Unit: "h", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O10", Name: "3V_DE status", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O11", Name: "MV_DE status", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O12", Name: "Shutdown status", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O13", Name: "DTU/WiFi online status", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O14", Name: "Defrost status", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O15", Name: "High temp hot water stage", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O18", Name: "Status O18", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O19", Name: "Status O19", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O20", Name: "Status O20", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O21", Name: "Temp sensor O21", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O22", Name: "Status O22", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O23", Name: "Status O23", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O24", Name: "Status O24", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O25", Name: "Status O25", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O26", Name: "Status O26", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O27", Name: "Status O27", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O28", Name: "Status O28", Unit: "", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "O29", Name: "Compressor speed", Unit: "Hz", Min: nil, Max: nil, Writable: false, Category: "operating"},
	{Code: "R01", Name: "Target temperature", Unit: "°C", Min: p(38), Max: p(75), Writable: true, Category: "main"},
	{Code: "R02", Name: "Sub-mode setting", Unit: "", Min: p(0), Max: p(3), Writable: true, Category: "main"},
	{Code: "R03", Name: "HP startup hysteresis (bottom)", Unit: "°C", Min: p(1), Max: p(20), Writable: true, Category: "main"},
	{Code: "R04", Name: "Enable R05 as booster setpoint", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "main"},
	{Code: "R05", Name: "Booster setpoint", Unit: "°C", Min: p(30), Max: p(90), Writable: true, Category: "main"},
	{Code: "R06", Name: "Booster startup delay", Unit: "min", Min: p(0), Max: p(90), Writable: true, Category: "main"},
	{Code: "R07", Name: "Booster replaces HP", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "main"},
	{Code: "R08", Name: "Ambient temp to replace HP", Unit: "°C", Min: p(-20), Max: p(10), Writable: true, Category: "main"},
	{Code: "R09", Name: "Ambient temp booster no delay", Unit: "°C", Min: p(0), Max: p(30), Writable: true, Category: "main"},
	{Code: "R10", Name: "Ambient temp booster with delay", Unit: "°C", Min: p(10), Max: p(40), Writable: true, Category: "main"},
	{Code: "R11", Name: "Option flag R11", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "main"},
	{Code: "R12", Name: "Compressor shutdown temp", Unit: "°C", Min: p(-30), Max: p(-5), Writable: true, Category: "main"},
	{Code: "R13", Name: "Mode/level setting R13", Unit: "", Min: p(0), Max: p(5), Writable: true, Category: "main"},
	{Code: "R14", Name: "Second heat source target", Unit: "°C", Min: p(38), Max: p(78), Writable: true, Category: "main"},
	{Code: "R15", Name: "Max ambient temp for compressor", Unit: "°C", Min: p(55), Max: p(80), Writable: true, Category: "main"},
	{Code: "R16", Name: "Mode setting R16", Unit: "", Min: p(0), Max: p(3), Writable: true, Category: "main"},
	{Code: "R17", Name: "Top sensor controls compressor", Unit: "", Min: p(0), Max: p(1), Writable: true, Category: "main"},
	{Code: "R18", Name: "HP startup hysteresis (top)", Unit: "°C", Min: p(1), Max: p(20), Writable: true, Category: "main"},
	{Code: "R19", Name: "Compressor stop setpoint 1", Unit: "°C", Min: p(30), Max: p(90), Writable: true, Category: "main"},
	{Code: "R20", Name: "Compressor stop setpoint 2", Unit: "°C", Min: p(30), Max: p(90), Writable: true, Category: "main"},
	{Code: "T01", Name: "Ambient temperature", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T02", Name: "Bottom temperature", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T03", Name: "Top temperature", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T04", Name: "Coil temperature", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T05", Name: "Suction temperature", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T06", Name: "Solar temperature", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T07", Name: "Discharge temperature", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T08", Name: "Sensor status flags", Unit: "", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T09", Name: "Temp sensor T09", Unit: "", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T10", Name: "Display temperature", Unit: "°C", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T11", Name: "Protection count", Unit: "", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T12", Name: "EEPROM storage count", Unit: "", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T20", Name: "Status T20", Unit: "", Min: nil, Max: nil, Writable: false, Category: "temp"},
	{Code: "T21", Name: "Status T21", Unit: "", Min: nil, Max: nil, Writable: false, Category: "temp"},
}

var byCode = func() map[string]ParamDef {
	m := make(map[string]ParamDef, len(params))
	for _, p := range params {
		m[p.Code] = p
	}
	return m
}()

// Codes returns every parameter code in catalog order. This is the set read each poll cycle.
func Codes() []string {
	codes := make([]string, len(params))
	for i, p := range params {
		codes[i] = p.Code
	}
	return codes
}

func Lookup(code string) (ParamDef, bool) {
	p, ok := byCode[code]
	return p, ok
}

// Category returns all parameters of a category sorted by code.
func Category(category string) []ParamDef {
	var list []ParamDef
	for _, p := range params {
		if p.Category == category {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Code < list[j].Code
	})
	return list
}

func p(v float64) *float64 {
	return &v
}
