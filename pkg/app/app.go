package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nergy-se/hitemp/pkg/alarm"
	"github.com/nergy-se/hitemp/pkg/api/v1/config"
	"github.com/nergy-se/hitemp/pkg/api/v1/device"
	"github.com/nergy-se/hitemp/pkg/api/v1/meter"
	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/nergy-se/hitemp/pkg/catalog"
	"github.com/nergy-se/hitemp/pkg/controller"
	"github.com/nergy-se/hitemp/pkg/cop"
	"github.com/nergy-se/hitemp/pkg/hitemp"
	"github.com/nergy-se/hitemp/pkg/metrics"
	"github.com/nergy-se/hitemp/pkg/state"
	"github.com/sirupsen/logrus"
)

// Transport talks to the heater. Errors wrap hitemp.ErrAuth or hitemp.ErrConnectivity.
type Transport interface {
	Login(ctx context.Context) (string, error)
	ListDevices(ctx context.Context) ([]device.Device, error)
	ReadParams(ctx context.Context, deviceCode string, codes []string) (map[string]device.Register, error)
	WriteParam(ctx context.Context, deviceCode, code string, value interface{}) (bool, error)
}

// Publisher receives the device state after every successful cycle.
type Publisher interface {
	PublishState(deviceCode string, s state.State) error
}

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseReady
	PhaseRefreshing
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseReady:
		return "ready"
	case PhaseRefreshing:
		return "refreshing"
	}
	return "unknown"
}

type App struct {
	wg        *sync.WaitGroup
	config    *config.CliConfig
	transport Transport

	store    *state.Store
	controls *controller.Registry
	cop      *cop.Estimator
	energy   *meter.Cache
	alarms   *alarm.ActiveAlarms
	metrics  *metrics.Metrics

	meterReader meter.Reader
	publisher   Publisher

	refresh    chan struct{}
	cycleMutex sync.Mutex

	mutex             sync.RWMutex
	phase             Phase
	lastUpdateSuccess bool
	lastUpdate        time.Time
	lastError         error
}

func New(config *config.CliConfig, transport Transport) *App {
	a := &App{
		wg:        &sync.WaitGroup{},
		config:    config,
		transport: transport,
		store:     state.NewStore(),
		cop:       cop.New(config.TankVolumeLiters),
		energy:    &meter.Cache{},
		alarms:    &alarm.ActiveAlarms{},
		metrics:   metrics.New(),
		refresh:   make(chan struct{}, 1),
	}
	a.controls = controller.NewRegistry(a.store, a)
	return a
}

// SetMeterReader makes every cycle poll r before the COP calculation.
func (a *App) SetMeterReader(r meter.Reader) {
	a.meterReader = r
}

func (a *App) SetPublisher(p Publisher) {
	a.publisher = p
}

// Energy is the cache holding the latest energy meter reading.
func (a *App) Energy() *meter.Cache {
	return a.energy
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *App) Alarms() []string {
	return a.alarms.List()
}

// Setup logs in and lists devices. An auth error means the credentials are wrong.
func (a *App) Setup(ctx context.Context) error {
	a.cycleMutex.Lock()
	defer a.cycleMutex.Unlock()
	return a.setup(ctx)
}

func (a *App) setup(ctx context.Context) error {
	_, err := a.transport.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	devices, err := a.transport.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	a.alarms.Remove(alarm.AuthAlarm)
	a.setPhase(PhaseReady)
	logrus.WithFields(logrus.Fields{
		"devices": len(devices),
	}).Info("app: setup done")
	return nil
}

// Start runs setup and then the refresh loop until ctx is done.
func (a *App) Start(ctx context.Context) error {
	err := a.Setup(ctx)
	if err != nil {
		if hitemp.IsAuth(err) {
			return err
		}
		logrus.Warnf("app: setup failed, retrying next cycle: %s", err)
	}

	a.wg.Add(1)
	go a.controllerLoop(ctx)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

// WaitGroup lets other components started with the app be waited for by Wait.
func (a *App) WaitGroup() *sync.WaitGroup {
	return a.wg
}

func (a *App) controllerLoop(ctx context.Context) {
	defer a.wg.Done()
	a.cycle(ctx)

	interval := a.config.UpdateInterval()
	delay := nextDelay(time.Now(), interval)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	logrus.Debug("app: scheduling next run in ", delay)
	for {
		select {
		case <-timer.C:
			timer.Reset(nextDelay(time.Now(), interval))
			a.cycle(ctx)
		case <-a.refresh:
			a.cycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) cycle(ctx context.Context) {
	err := a.DoRefresh(ctx)
	if err != nil {
		logrus.Errorf("app: refresh failed: %s", err)
	}
}

// RequestRefresh schedules one extra cycle. Requests made while one is already pending are dropped.
func (a *App) RequestRefresh() {
	select {
	case a.refresh <- struct{}{}:
	default:
	}
}

// DoRefresh runs one full cycle. The snapshot is only replaced if every read succeeded.
func (a *App) DoRefresh(ctx context.Context) error {
	a.cycleMutex.Lock()
	defer a.cycleMutex.Unlock()

	if a.Phase() == PhaseUninitialized {
		err := a.setup(ctx)
		if err != nil {
			a.failed(err)
			return err
		}
	}

	a.setPhase(PhaseRefreshing)
	devices, err := a.transport.ListDevices(ctx)
	if err != nil {
		err = fmt.Errorf("list devices: %w", err)
		a.failed(err)
		return err
	}

	codes := catalog.Codes()
	registers := make(map[string]map[string]device.Register, len(devices))
	for _, d := range devices {
		regs, err := a.transport.ReadParams(ctx, d.DeviceCode, codes)
		if err != nil {
			err = fmt.Errorf("read params %s: %w", d.DeviceCode, err)
			a.failed(err)
			return err
		}
		registers[d.DeviceCode] = regs
	}

	a.store.Replace(devices, registers)
	a.succeeded()

	for _, d := range devices {
		if a.controls.HasEnabled(d.DeviceCode) {
			a.controls.Reconcile(ctx, d.DeviceCode)
		}
	}

	a.readMeter()
	for _, d := range devices {
		stored := a.cop.StoredEnergy(a.store.Float(d.DeviceCode, catalog.BottomCode))
		a.cop.Update(d.DeviceCode, a.energy.Energy(), stored)
	}

	a.report(devices)
	return nil
}

func (a *App) readMeter() {
	if a.meterReader == nil {
		return
	}
	m := a.config.Meter()
	data, err := a.meterReader.ReadValues(m.Model, m.PrimaryID)
	if err != nil {
		logrus.Errorf("app: error reading energy meter: %s", err)
		return
	}
	a.energy.Set(data)
}

func (a *App) report(devices []device.Device) {
	for _, d := range devices {
		if d.Online() {
			a.alarms.Remove(alarm.OfflineAlarm(d.DeviceCode))
		} else if a.alarms.Add(alarm.OfflineAlarm(d.DeviceCode)) {
			logrus.Warnf("app: device %s is offline", d.DeviceCode)
		}

		s := a.State(d.DeviceCode)
		a.metrics.SetState(d.DeviceCode, s)
		for _, kind := range types.ControlKinds {
			a.metrics.SetControl(d.DeviceCode, kind, a.IsControlEnabled(kind, d.DeviceCode), a.GetControlTarget(kind, d.DeviceCode))
		}
		if a.publisher != nil {
			err := a.publisher.PublishState(d.DeviceCode, s)
			if err != nil {
				logrus.Errorf("app: error publishing state: %s", err)
			}
		}
	}
}

func (a *App) failed(err error) {
	a.mutex.Lock()
	a.lastUpdateSuccess = false
	a.lastError = err
	if errors.Is(err, hitemp.ErrAuth) {
		a.phase = PhaseUninitialized
	} else if a.phase == PhaseRefreshing {
		a.phase = PhaseReady
	}
	a.mutex.Unlock()

	if errors.Is(err, hitemp.ErrAuth) {
		a.alarms.Add(alarm.AuthAlarm)
	}
	a.metrics.Cycle(err)
}

func (a *App) succeeded() {
	a.mutex.Lock()
	a.lastUpdateSuccess = true
	a.lastUpdate = time.Now()
	a.lastError = nil
	a.phase = PhaseReady
	a.mutex.Unlock()
	a.metrics.Cycle(nil)
}

func (a *App) setPhase(p Phase) {
	a.mutex.Lock()
	a.phase = p
	a.mutex.Unlock()
}

func (a *App) Phase() Phase {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.phase
}

func (a *App) LastUpdateSuccess() bool {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.lastUpdateSuccess
}

func (a *App) LastUpdate() time.Time {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.lastUpdate
}

func (a *App) LastError() error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.lastError
}
