package controller

import (
	"context"
	"fmt"

	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/sirupsen/logrus"
)

// Registry holds one Thermostat per control kind. The kinds share the
// setpoint register so at most one of them is enabled per device.
type Registry struct {
	thermostats map[types.ControlKind]*Thermostat
}

// NewRegistry creates the minimum and bottom controls.
func NewRegistry(reader Reader, writer Writer) *Registry {
	return &Registry{
		thermostats: map[types.ControlKind]*Thermostat{
			types.ControlKindMinimum: NewMinimum(reader, writer),
			types.ControlKindBottom:  NewBottom(reader, writer),
		},
	}
}

// Get returns an error for unknown kinds.
func (r *Registry) Get(kind types.ControlKind) (*Thermostat, error) {
	t, ok := r.thermostats[kind]
	if !ok {
		return nil, fmt.Errorf("unknown control kind %q", kind)
	}
	return t, nil
}

// Enable enables kind for deviceCode and disables every other kind on that device.
func (r *Registry) Enable(kind types.ControlKind, deviceCode string, target float64) error {
	t, err := r.Get(kind)
	if err != nil {
		return err
	}
	for other, ot := range r.thermostats {
		if other != kind && ot.Enabled(deviceCode) {
			logrus.WithFields(logrus.Fields{
				"control": ot.Name,
				"device":  deviceCode,
			}).Infof("controller: replaced by %s", t.Name)
			ot.Disable(deviceCode)
		}
	}
	t.Enable(deviceCode, target)
	return nil
}

// Disable is a noop when kind is not enabled for deviceCode.
func (r *Registry) Disable(kind types.ControlKind, deviceCode string) error {
	t, err := r.Get(kind)
	if err != nil {
		return err
	}
	t.Disable(deviceCode)
	return nil
}

// Enabled is false for unknown kinds.
func (r *Registry) Enabled(kind types.ControlKind, deviceCode string) bool {
	t, err := r.Get(kind)
	if err != nil {
		return false
	}
	return t.Enabled(deviceCode)
}

// Target returns nil unless kind is enabled for deviceCode.
func (r *Registry) Target(kind types.ControlKind, deviceCode string) *float64 {
	t, err := r.Get(kind)
	if err != nil {
		return nil
	}
	return t.Target(deviceCode)
}

// HasEnabled reports whether any kind controls deviceCode.
func (r *Registry) HasEnabled(deviceCode string) bool {
	for _, t := range r.thermostats {
		if t.Enabled(deviceCode) {
			return true
		}
	}
	return false
}

// Reconcile runs every enabled control for deviceCode in ControlKinds order.
func (r *Registry) Reconcile(ctx context.Context, deviceCode string) {
	for _, kind := range types.ControlKinds {
		if t, ok := r.thermostats[kind]; ok {
			t.Reconcile(ctx, deviceCode)
		}
	}
}
