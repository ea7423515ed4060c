package controller

import (
	"context"
	"math"
	"sync"

	"github.com/nergy-se/hitemp/pkg/catalog"
	"github.com/sirupsen/logrus"
)

// Deadband is the smallest change in a sensor or setpoint that is treated as a real change.
const Deadband = 0.1

// Reader looks up numeric register values in the current snapshot.
type Reader interface {
	Float(deviceCode, code string) *float64
}

// Writer writes one register. It returns false on any failure.
type Writer interface {
	WriteParam(ctx context.Context, deviceCode, code string, value interface{}) bool
}

// DriverFunc returns the sensor value the setpoint is coupled to.
type DriverFunc func(r Reader, deviceCode string) *float64

// OverridePolicy decides what happens when the setpoint was changed by someone else.
type OverridePolicy int

const (
	// OverrideYield disables the control.
	OverrideYield OverridePolicy = iota
	// OverrideAdopt keeps the control enabled and derives a new target from the changed setpoint.
	OverrideAdopt
)

func (p OverridePolicy) String() string {
	switch p {
	case OverrideYield:
		return "yield"
	case OverrideAdopt:
		return "adopt"
	}
	return "unknown"
}

type control struct {
	enabled      bool
	target       float64
	lastDriver   *float64
	lastSetpoint *float64
}

// Thermostat is a virtual thermostat on top of a single physical setpoint register.
// The relation is setpoint = (target + driver) / 2.
type Thermostat struct {
	Name         string
	Policy       OverridePolicy
	driver       DriverFunc
	setpointCode string
	min          float64
	max          float64

	reader   Reader
	writer   Writer
	controls map[string]*control
	mutex    sync.Mutex
}

// NewThermostat drives setpointCode so that target is reached, clamping the written value to min and max.
func NewThermostat(name string, driver DriverFunc, setpointCode string, min, max float64, policy OverridePolicy, reader Reader, writer Writer) *Thermostat {
	return &Thermostat{
		Name:         name,
		Policy:       policy,
		driver:       driver,
		setpointCode: setpointCode,
		min:          min,
		max:          max,
		reader:       reader,
		writer:       writer,
		controls:     make(map[string]*control),
	}
}

// Enable starts controlling deviceCode towards target. No write is issued.
func (t *Thermostat) Enable(deviceCode string, target float64) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.controls[deviceCode] = &control{
		enabled:      true,
		target:       target,
		lastDriver:   t.driver(t.reader, deviceCode),
		lastSetpoint: t.reader.Float(deviceCode, t.setpointCode),
	}
	logrus.WithFields(logrus.Fields{
		"control": t.Name,
		"device":  deviceCode,
		"target":  target,
	}).Debug("controller: enabled")
}

// Disable forgets deviceCode and its baselines.
func (t *Thermostat) Disable(deviceCode string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.controls, deviceCode)
	logrus.WithFields(logrus.Fields{
		"control": t.Name,
		"device":  deviceCode,
	}).Debug("controller: disabled")
}

// Enabled reports whether deviceCode is under control.
func (t *Thermostat) Enabled(deviceCode string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	c, ok := t.controls[deviceCode]
	return ok && c.enabled
}

// Target returns the stored target or nil when the control is not enabled.
func (t *Thermostat) Target(deviceCode string) *float64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	c, ok := t.controls[deviceCode]
	if !ok || !c.enabled {
		return nil
	}
	target := c.target
	return &target
}

// CalculateSetpoint returns the setpoint that gives target with the current driver value.
func (t *Thermostat) CalculateSetpoint(deviceCode string, target float64) *float64 {
	driver := t.driver(t.reader, deviceCode)
	if driver == nil {
		return nil
	}
	sp := t.setpoint(target, *driver)
	return &sp
}

// CalculateImpliedTarget is the inverse of CalculateSetpoint. If setpoint is nil the current register value is used.
func (t *Thermostat) CalculateImpliedTarget(deviceCode string, setpoint *float64) *float64 {
	if setpoint == nil {
		setpoint = t.reader.Float(deviceCode, t.setpointCode)
	}
	if setpoint == nil {
		return nil
	}
	driver := t.driver(t.reader, deviceCode)
	if driver == nil {
		return nil
	}
	target := 2**setpoint - *driver
	return &target
}

func (t *Thermostat) setpoint(target, driver float64) float64 {
	return math.Max(t.min, math.Min(t.max, (target+driver)/2))
}

// Reconcile compares the snapshot against the remembered baselines and writes a new setpoint if the driver sensor moved.
func (t *Thermostat) Reconcile(ctx context.Context, deviceCode string) {
	t.mutex.Lock()
	c, ok := t.controls[deviceCode]
	if !ok || !c.enabled {
		t.mutex.Unlock()
		return
	}

	driver := t.driver(t.reader, deviceCode)
	setpoint := t.reader.Float(deviceCode, t.setpointCode)
	if driver == nil || setpoint == nil {
		t.mutex.Unlock()
		return
	}

	logger := logrus.WithFields(logrus.Fields{
		"control":  t.Name,
		"device":   deviceCode,
		"driver":   *driver,
		"setpoint": *setpoint,
	})

	if c.lastSetpoint != nil && math.Abs(*setpoint-*c.lastSetpoint) > Deadband {
		switch t.Policy {
		case OverrideYield:
			c.enabled = false
			logger.Infof("controller: setpoint changed externally from %.1f, disabling", *c.lastSetpoint)
		case OverrideAdopt:
			c.target = 2**setpoint - *driver
			logger.Infof("controller: setpoint changed externally from %.1f, new target %.1f", *c.lastSetpoint, c.target)
		}
		c.lastDriver = driver
		c.lastSetpoint = setpoint
		t.mutex.Unlock()
		return
	}

	if c.lastDriver != nil && math.Abs(*driver-*c.lastDriver) > Deadband {
		ideal := t.setpoint(c.target, *driver)
		if math.Abs(ideal-*setpoint) > Deadband {
			t.mutex.Unlock()
			logger.Debugf("controller: driver changed from %.1f, writing setpoint %.1f", *c.lastDriver, ideal)
			if !t.writer.WriteParam(ctx, deviceCode, t.setpointCode, ideal) {
				return
			}
			t.mutex.Lock()
			if cur, ok := t.controls[deviceCode]; ok && cur == c && c.enabled {
				c.lastSetpoint = &ideal
			}
			t.mutex.Unlock()
			return
		}
	}

	c.lastDriver = driver
	c.lastSetpoint = setpoint
	t.mutex.Unlock()
}

// MaxTankTemperature is the warmer of the bottom and top sensors.
func MaxTankTemperature(r Reader, deviceCode string) *float64 {
	bottom := r.Float(deviceCode, catalog.BottomCode)
	top := r.Float(deviceCode, catalog.TopCode)
	if bottom == nil || top == nil {
		return nil
	}
	v := math.Max(*bottom, *top)
	return &v
}

// TopTemperature returns the top sensor.
func TopTemperature(r Reader, deviceCode string) *float64 {
	return r.Float(deviceCode, catalog.TopCode)
}

// NewMinimum keeps the coldest part of the tank at or above the target. A manual setpoint change disables it.
func NewMinimum(reader Reader, writer Writer) *Thermostat {
	return NewThermostat("minimum", MaxTankTemperature, catalog.SetpointCode, catalog.SetpointMin, catalog.SetpointMax, OverrideYield, reader, writer)
}

// NewBottom aims the bottom sensor at the target. A manual setpoint change becomes the new target.
func NewBottom(reader Reader, writer Writer) *Thermostat {
	return NewThermostat("bottom", TopTemperature, catalog.SetpointCode, catalog.SetpointMin, catalog.SetpointMax, OverrideAdopt, reader, writer)
}
