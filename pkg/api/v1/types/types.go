package types

import "fmt"

// ControlKind names a virtual thermostat layered on the R01 setpoint.
type ControlKind string

var ControlKindBottom = ControlKind("bottom")
var ControlKindMinimum = ControlKind("minimum")

// ControlKinds in the order they are reconciled.
var ControlKinds = []ControlKind{ControlKindMinimum, ControlKindBottom}

func ParseControlKind(s string) (ControlKind, error) {
	for _, k := range ControlKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown control kind %q", s)
}

// ControllerType selects the transport used to talk to the heater.
type ControllerType string

var ControllerTypeCloud = ControllerType("cloud")
var ControllerTypeDummy = ControllerType("dummy")

// MeterInterfaceType selects where the external energy meter reading comes from.
type MeterInterfaceType string

var MeterInterfaceNone = MeterInterfaceType("none")
var MeterInterfaceMQTT = MeterInterfaceType("mqtt")
var MeterInterfaceMbus = MeterInterfaceType("mbus")
var MeterInterfaceModbus = MeterInterfaceType("modbus")

// RegisterFormat is how a modbus meter stores its energy counter.
type RegisterFormat string

var RegisterUint32 = RegisterFormat("uint32")
var RegisterInt32 = RegisterFormat("int32")
var RegisterInt16 = RegisterFormat("int16")
var RegisterInput16 = RegisterFormat("input16")

func (f RegisterFormat) Valid() bool {
	switch f {
	case RegisterUint32, RegisterInt32, RegisterInt16, RegisterInput16:
		return true
	}
	return false
}
