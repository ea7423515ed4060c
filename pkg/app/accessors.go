package app

import (
	"context"

	"github.com/nergy-se/hitemp/pkg/api/v1/device"
	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/nergy-se/hitemp/pkg/catalog"
	"github.com/nergy-se/hitemp/pkg/state"
	"github.com/sirupsen/logrus"
)

func (a *App) GetRegister(deviceCode, code string) (interface{}, bool) {
	return a.store.Get(deviceCode, code)
}

func (a *App) GetFloat(deviceCode, code string) *float64 {
	return a.store.Float(deviceCode, code)
}

func (a *App) GetDeviceMetadata(deviceCode string) *device.Device {
	return a.store.GetDevice(deviceCode)
}

func (a *App) Devices() []device.Device {
	return a.store.Devices()
}

func (a *App) EnableControl(kind types.ControlKind, deviceCode string, target float64) error {
	return a.controls.Enable(kind, deviceCode, target)
}

func (a *App) DisableControl(kind types.ControlKind, deviceCode string) error {
	return a.controls.Disable(kind, deviceCode)
}

func (a *App) IsControlEnabled(kind types.ControlKind, deviceCode string) bool {
	return a.controls.Enabled(kind, deviceCode)
}

func (a *App) GetControlTarget(kind types.ControlKind, deviceCode string) *float64 {
	return a.controls.Target(kind, deviceCode)
}

// CalculateSetpoint returns the setpoint the control would write for target right now.
func (a *App) CalculateSetpoint(kind types.ControlKind, deviceCode string, target float64) *float64 {
	t, err := a.controls.Get(kind)
	if err != nil {
		return nil
	}
	return t.CalculateSetpoint(deviceCode, target)
}

// CalculateImpliedTarget returns the target that corresponds to the current setpoint.
func (a *App) CalculateImpliedTarget(kind types.ControlKind, deviceCode string) *float64 {
	t, err := a.controls.Get(kind)
	if err != nil {
		return nil
	}
	return t.CalculateImpliedTarget(deviceCode, nil)
}

func (a *App) GetCOP(deviceCode string) *float64 {
	return a.cop.COP(deviceCode)
}

// IsCompressorRunning reports a non-zero compressor speed.
func (a *App) IsCompressorRunning(deviceCode string) bool {
	v := a.store.Float(deviceCode, catalog.CompressorSpeedCode)
	return v != nil && *v > 0
}

// Available is true when the last cycle succeeded and the device reports online.
func (a *App) Available(deviceCode string) bool {
	if !a.LastUpdateSuccess() {
		return false
	}
	d := a.store.GetDevice(deviceCode)
	return d != nil && d.Online()
}

// State is the snapshot summary including COP and control targets.
func (a *App) State(deviceCode string) state.State {
	s := a.store.State(deviceCode)
	available := a.Available(deviceCode)
	s.Available = &available
	s.StoredEnergy = a.cop.StoredEnergy(s.Bottom)
	s.COP = a.GetCOP(deviceCode)
	s.BottomTarget = a.GetControlTarget(types.ControlKindBottom, deviceCode)
	s.MinimumTarget = a.GetControlTarget(types.ControlKindMinimum, deviceCode)
	return s
}

// WriteParam writes one register and schedules a refresh on success. Errors are logged, never returned.
func (a *App) WriteParam(ctx context.Context, deviceCode, code string, value interface{}) bool {
	logger := logrus.WithFields(logrus.Fields{
		"device": deviceCode,
		"code":   code,
		"value":  value,
	})
	ok, err := a.transport.WriteParam(ctx, deviceCode, code, value)
	if err != nil {
		logger.Errorf("app: WriteParam: %s", err)
		ok = false
	} else if !ok {
		logger.Warn("app: WriteParam: rejected")
	}
	a.metrics.Write(ok)
	if !ok {
		return false
	}
	logger.Debug("app: WriteParam: ok")
	a.RequestRefresh()
	return true
}
