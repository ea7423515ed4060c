package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nergy-se/hitemp/pkg/alarm"
	"github.com/nergy-se/hitemp/pkg/api/v1/config"
	"github.com/nergy-se/hitemp/pkg/api/v1/device"
	"github.com/nergy-se/hitemp/pkg/api/v1/meter"
	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/nergy-se/hitemp/pkg/hitemp"
	"github.com/nergy-se/hitemp/pkg/state"
	"github.com/stretchr/testify/assert"
)

func newTestApp() (*App, *hitemp.Dummy) {
	d := hitemp.NewDummyHeater()
	cfg := &config.CliConfig{
		TankVolumeLiters:      300,
		UpdateIntervalSeconds: 3600,
	}
	return New(cfg, d), d
}

func TestSetupAndRefresh(t *testing.T) {
	a, d := newTestApp()
	assert.Equal(t, PhaseUninitialized, a.Phase())
	assert.False(t, a.LastUpdateSuccess())

	err := a.Setup(context.TODO())
	assert.NoError(t, err)
	assert.Equal(t, PhaseReady, a.Phase())
	assert.Equal(t, 1, d.Logins())
	_, ok := a.GetRegister("dummy", "T02")
	assert.False(t, ok)

	err = a.DoRefresh(context.TODO())
	assert.NoError(t, err)
	assert.True(t, a.LastUpdateSuccess())
	assert.Equal(t, PhaseReady, a.Phase())
	v, ok := a.GetRegister("dummy", "T02")
	assert.True(t, ok)
	assert.Equal(t, 45.0, v)
	assert.Equal(t, "Dummy heater", a.GetDeviceMetadata("dummy").Name())
	assert.True(t, a.Available("dummy"))
	assert.False(t, a.IsCompressorRunning("dummy"))

	// the on/off flag alone does not count, speed does
	d.Set("dummy", "O01", 1)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.False(t, a.IsCompressorRunning("dummy"))

	d.Set("dummy", "O01", 0)
	d.Set("dummy", "O29", 50)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.True(t, a.IsCompressorRunning("dummy"))
	assert.Equal(t, 1, d.Logins())
}

func TestRefreshLogsInWhenUninitialized(t *testing.T) {
	a, d := newTestApp()
	err := a.DoRefresh(context.TODO())
	assert.NoError(t, err)
	assert.Equal(t, 1, d.Logins())
	assert.Equal(t, 45.0, *a.GetFloat("dummy", "T02"))
}

func TestFailedCycleKeepsSnapshot(t *testing.T) {
	a, d := newTestApp()
	assert.NoError(t, a.DoRefresh(context.TODO()))

	d.Set("dummy", "T02", 50.0)
	d.Fail(fmt.Errorf("%w: timeout", hitemp.ErrConnectivity))
	err := a.DoRefresh(context.TODO())
	assert.True(t, errors.Is(err, hitemp.ErrConnectivity))
	assert.False(t, a.LastUpdateSuccess())
	assert.False(t, a.Available("dummy"))
	assert.Equal(t, PhaseReady, a.Phase())
	assert.Equal(t, err, a.LastError())
	v, ok := a.GetRegister("dummy", "T02")
	assert.True(t, ok)
	assert.Equal(t, 45.0, v)

	d.Fail(nil)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, 50.0, *a.GetFloat("dummy", "T02"))
	assert.True(t, a.Available("dummy"))
	assert.Nil(t, a.LastError())
}

func TestConnectivityDuringSetupStaysUninitialized(t *testing.T) {
	a, d := newTestApp()
	d.Fail(hitemp.ErrConnectivity)
	assert.Error(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, PhaseUninitialized, a.Phase())

	d.Fail(nil)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, PhaseReady, a.Phase())
}

func TestAuthErrorReauthenticates(t *testing.T) {
	a, d := newTestApp()
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, 1, d.Logins())

	d.Fail(fmt.Errorf("%w: token expired", hitemp.ErrAuth))
	err := a.DoRefresh(context.TODO())
	assert.True(t, hitemp.IsAuth(err))
	assert.Equal(t, PhaseUninitialized, a.Phase())
	assert.Contains(t, a.Alarms(), alarm.AuthAlarm)

	d.Fail(nil)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, 2, d.Logins())
	assert.NotContains(t, a.Alarms(), alarm.AuthAlarm)
}

func TestDeviceSetChanges(t *testing.T) {
	a, d := newTestApp()
	d.AddDevice(device.Device{DeviceCode: "second", DeviceStatus: "OFFLINE"})
	d.Set("second", "T02", 30.0)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Len(t, a.Devices(), 2)
	assert.False(t, a.Available("second"))
	assert.Contains(t, a.Alarms(), alarm.OfflineAlarm("second"))

	d.RemoveDevice("second")
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Nil(t, a.GetDeviceMetadata("second"))
	assert.Nil(t, a.GetFloat("second", "T02"))
	assert.Len(t, a.Devices(), 1)
}

func TestWriteParamRequestsRefresh(t *testing.T) {
	a, d := newTestApp()
	assert.NoError(t, a.DoRefresh(context.TODO()))

	assert.True(t, a.WriteParam(context.TODO(), "dummy", "R01", 52))
	assert.True(t, a.WriteParam(context.TODO(), "dummy", "R01", 53))
	assert.Len(t, a.refresh, 1)
	assert.Len(t, d.Writes(), 2)

	<-a.refresh
	assert.False(t, a.WriteParam(context.TODO(), "unknown", "R01", 53))
	d.Fail(hitemp.ErrConnectivity)
	assert.False(t, a.WriteParam(context.TODO(), "dummy", "R01", 54))
	assert.Len(t, a.refresh, 0)

	d.Fail(nil)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, 53.0, *a.GetFloat("dummy", "R01"))
}

func TestReconcileWritesDuringRefresh(t *testing.T) {
	a, d := newTestApp()
	d.Set("dummy", "T02", 70.0)
	d.Set("dummy", "T03", 60.0)
	d.Set("dummy", "R01", 60.0)
	assert.NoError(t, a.DoRefresh(context.TODO()))

	assert.NoError(t, a.EnableControl(types.ControlKindMinimum, "dummy", 50))
	assert.True(t, a.IsControlEnabled(types.ControlKindMinimum, "dummy"))
	assert.Equal(t, 50.0, *a.GetControlTarget(types.ControlKindMinimum, "dummy"))
	assert.Equal(t, 60.0, *a.CalculateSetpoint(types.ControlKindMinimum, "dummy", 50))
	assert.Equal(t, 50.0, *a.CalculateImpliedTarget(types.ControlKindMinimum, "dummy"))
	assert.Empty(t, d.Writes())

	d.Set("dummy", "T02", 74.0)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, []hitemp.Write{{DeviceCode: "dummy", Code: "R01", Value: 62.0}}, d.Writes())
	assert.Len(t, a.refresh, 1)

	<-a.refresh
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Len(t, d.Writes(), 1)
	assert.True(t, a.IsControlEnabled(types.ControlKindMinimum, "dummy"))
	assert.Equal(t, 50.0, *a.State("dummy").MinimumTarget)
}

func TestOverrideDisablesMinimumControl(t *testing.T) {
	a, d := newTestApp()
	d.Set("dummy", "T02", 70.0)
	d.Set("dummy", "T03", 60.0)
	d.Set("dummy", "R01", 60.0)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.NoError(t, a.EnableControl(types.ControlKindMinimum, "dummy", 50))
	assert.NoError(t, a.EnableControl(types.ControlKindBottom, "dummy", 60))

	d.Set("dummy", "R01", 65.0)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.False(t, a.IsControlEnabled(types.ControlKindMinimum, "dummy"))
	assert.Nil(t, a.GetControlTarget(types.ControlKindMinimum, "dummy"))
	assert.True(t, a.IsControlEnabled(types.ControlKindBottom, "dummy"))
	assert.Equal(t, 70.0, *a.GetControlTarget(types.ControlKindBottom, "dummy"))
	assert.Empty(t, d.Writes())

	assert.NoError(t, a.DisableControl(types.ControlKindBottom, "dummy"))
	assert.False(t, a.IsControlEnabled(types.ControlKindBottom, "dummy"))
	assert.Error(t, a.EnableControl("unknown", "dummy", 50))
}

type fakeMeter struct {
	kwh float64
}

func (f *fakeMeter) ReadValues(model, id string) (*meter.Data, error) {
	return &meter.Data{Id: id, Model: model, Total_WH: f.kwh * 1000}, nil
}

func TestCOP(t *testing.T) {
	a, d := newTestApp()
	m := &fakeMeter{kwh: 100}
	a.SetMeterReader(m)

	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Nil(t, a.GetCOP("dummy"))
	assert.Equal(t, 100.0, *a.Energy().Energy())

	d.Set("dummy", "T02", 55.0)
	m.kwh = 101
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, 3.49, *a.GetCOP("dummy"))

	s := a.State("dummy")
	assert.Equal(t, 3.49, *s.COP)
	assert.InDelta(t, 19.1895, *s.StoredEnergy, 0.0001)
	assert.True(t, *s.Available)
}

func TestCOPFromCache(t *testing.T) {
	a, d := newTestApp()
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Nil(t, a.GetCOP("dummy"))

	a.Energy().Set(&meter.Data{Total_WH: 100000})
	assert.NoError(t, a.DoRefresh(context.TODO()))
	d.Set("dummy", "T02", 55.0)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Nil(t, a.GetCOP("dummy"))

	a.Energy().Set(&meter.Data{Total_WH: 101000})
	assert.NoError(t, a.DoRefresh(context.TODO()))
	// stored energy baseline is from the first meter reading
	assert.Equal(t, 3.49, *a.GetCOP("dummy"))
}

type fakePublisher struct {
	states map[string]state.State
	sync.Mutex
}

func (f *fakePublisher) PublishState(deviceCode string, s state.State) error {
	f.Lock()
	defer f.Unlock()
	f.states[deviceCode] = s
	return nil
}

func TestPublishState(t *testing.T) {
	a, _ := newTestApp()
	p := &fakePublisher{states: make(map[string]state.State)}
	a.SetPublisher(p)
	assert.NoError(t, a.DoRefresh(context.TODO()))
	assert.Equal(t, 55.0, *p.states["dummy"].Top)
	assert.Equal(t, "eco", p.states["dummy"].Preset)
}

func TestStart(t *testing.T) {
	a, d := newTestApp()
	ctx, cancel := context.WithCancel(context.TODO())
	err := a.Start(ctx)
	assert.NoError(t, err)

	waitFor(t, time.Second, "first cycle", a.LastUpdateSuccess)

	d.Set("dummy", "T02", 48.0)
	a.RequestRefresh()
	waitFor(t, time.Second, "requested cycle", func() bool {
		v := a.GetFloat("dummy", "T02")
		return v != nil && *v == 48.0
	})

	cancel()
	a.Wait()
}

func TestStartAuthIsFatal(t *testing.T) {
	a, d := newTestApp()
	d.Fail(hitemp.ErrAuth)
	err := a.Start(context.TODO())
	assert.True(t, hitemp.IsAuth(err))
}

func TestStartRetriesConnectivity(t *testing.T) {
	a, d := newTestApp()
	d.Fail(hitemp.ErrConnectivity)
	ctx, cancel := context.WithCancel(context.TODO())
	assert.NoError(t, a.Start(ctx))

	d.Fail(nil)
	a.RequestRefresh()
	waitFor(t, time.Second, "recovered cycle", a.LastUpdateSuccess)

	cancel()
	a.Wait()
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "uninitialized", PhaseUninitialized.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "refreshing", PhaseRefreshing.String())
	assert.Equal(t, "unknown", Phase(9).String())
}

func waitFor(t *testing.T, timeout time.Duration, msg string, ok func() bool) {
	end := time.Now().Add(timeout)
	for {
		if end.Before(time.Now()) {
			t.Errorf("timeout waiting for: %s", msg)
			return
		}
		time.Sleep(10 * time.Millisecond)
		if ok() {
			return
		}
	}
}
