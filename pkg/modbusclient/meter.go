package modbusclient

import (
	"fmt"
	"time"

	"github.com/nergy-se/hitemp/pkg/api/v1/meter"
	"github.com/nergy-se/hitemp/pkg/api/v1/types"
)

// Meter reads an accumulated energy counter from a modbus tcp energy meter.
type Meter struct {
	client   Client
	register uint16
	format   types.RegisterFormat
	scale    float64
}

// NewMeter reads the counter at register. Total_WH = raw * scale.
func NewMeter(c Client, register uint16, format types.RegisterFormat, scale float64) *Meter {
	if scale == 0 {
		scale = 1
	}
	if format == "" {
		format = types.RegisterUint32
	}
	return &Meter{
		client:   c,
		register: register,
		format:   format,
		scale:    scale,
	}
}

func (m *Meter) read() (float64, error) {
	switch m.format {
	case types.RegisterUint32:
		v, err := m.client.ReadHoldingRegisterUint32(m.register)
		return float64(v), err
	case types.RegisterInt32:
		v, err := m.client.ReadHoldingRegister32(m.register)
		return float64(v), err
	case types.RegisterInt16:
		v, err := m.client.ReadHoldingRegister16(m.register)
		return float64(v), err
	case types.RegisterInput16:
		v, err := m.client.ReadInputRegister(m.register)
		return float64(v), err
	}
	return 0, fmt.Errorf("unknown register format %q", m.format)
}

func (m *Meter) ReadValues(model, id string) (*meter.Data, error) {
	raw, err := m.read()
	if err != nil {
		return nil, fmt.Errorf("error reading energy meter %s: %w", id, err)
	}
	return &meter.Data{
		Id:       id,
		Model:    model,
		Time:     time.Now(),
		Total_WH: raw * m.scale,
	}, nil
}
