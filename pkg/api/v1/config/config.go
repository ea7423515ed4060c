package config

import (
	"fmt"
	"time"

	"github.com/nergy-se/hitemp/pkg/api/v1/types"
)

// Meter describes where the external energy meter reading used for COP comes from.
type Meter struct {
	InterfaceType types.MeterInterfaceType
	Model         string
	PrimaryID     string
	// Address is a modbus tcp address or a serial device for mbus.
	Address string
	// Topic and Field are used by the mqtt meter. An empty Field means the payload is a plain number in kWh.
	Topic string
	Field string
	// Register, Format and Scale are used by the modbus meter. value_wh = raw * Scale.
	Register uint16
	Format   types.RegisterFormat
	Scale    float64
}

func (c *CliConfig) Meter() Meter {
	m := Meter{
		InterfaceType: types.MeterInterfaceType(c.MeterInterfaceType),
		Model:         c.MeterModel,
		PrimaryID:     c.MeterPrimaryID,
		Address:       c.MeterAddress,
		Topic:         c.MeterTopic,
		Field:         c.MeterField,
		Register:      uint16(c.MeterRegister),
		Format:        types.RegisterFormat(c.MeterFormat),
		Scale:         c.MeterScale,
	}
	if m.InterfaceType == "" {
		m.InterfaceType = types.MeterInterfaceNone
	}
	if m.Scale == 0 {
		m.Scale = 1
	}
	if m.Format == "" {
		m.Format = types.RegisterUint32
	}
	return m
}

func (c *CliConfig) UpdateInterval() time.Duration {
	if c.UpdateIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.UpdateIntervalSeconds) * time.Second
}

func (c *CliConfig) Validate() error {
	switch types.ControllerType(c.ControllerType) {
	case types.ControllerTypeCloud:
		if c.Email == "" || c.Secret() == "" {
			return fmt.Errorf("email and password must be set for controller type %s", c.ControllerType)
		}
	case types.ControllerTypeDummy:
	default:
		return fmt.Errorf("unknown controller type %q", c.ControllerType)
	}

	m := c.Meter()
	switch m.InterfaceType {
	case types.MeterInterfaceNone:
	case types.MeterInterfaceMQTT:
		if m.Topic == "" {
			return fmt.Errorf("meter topic must be set for mqtt meter")
		}
		if c.MqttListen == "" {
			return fmt.Errorf("mqtt meter requires MqttListen")
		}
	case types.MeterInterfaceMbus, types.MeterInterfaceModbus:
		if m.Address == "" {
			return fmt.Errorf("meter address must be set for %s meter", m.InterfaceType)
		}
		if m.InterfaceType == types.MeterInterfaceModbus && !m.Format.Valid() {
			return fmt.Errorf("unknown meter register format %q", m.Format)
		}
	default:
		return fmt.Errorf("unknown meter interface type %q", m.InterfaceType)
	}

	if c.TankVolumeLiters <= 0 {
		return fmt.Errorf("tank volume must be positive, got %f", c.TankVolumeLiters)
	}
	return nil
}
