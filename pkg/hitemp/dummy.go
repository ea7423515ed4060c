package hitemp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/nergy-se/hitemp/pkg/api/v1/device"
	"github.com/sirupsen/logrus"
)

type Write struct {
	DeviceCode string
	Code       string
	Value      interface{}
}

// Dummy is an in-memory heater used for tests and for running without cloud access.
// Writes are applied to its registers so the next read observes them.
type Dummy struct {
	devices   []device.Device
	registers map[string]map[string]device.Register
	writes    []Write
	err       error
	logins    int
	sync.Mutex
}

func NewDummy() *Dummy {
	return &Dummy{
		registers: make(map[string]map[string]device.Register),
	}
}

// NewDummyHeater returns a Dummy with one online heater with plausible values.
func NewDummyHeater() *Dummy {
	d := NewDummy()
	d.AddDevice(device.Device{DeviceCode: "dummy", DeviceNickName: "Dummy heater", DeviceStatus: device.StatusOnline})
	for code, v := range map[string]interface{}{
		"Power":     1,
		"mode_real": 2,
		"R01":       50.0,
		"T01":       20.0,
		"T02":       45.0,
		"T03":       55.0,
		"O01":       0,
		"O02":       0,
		"O14":       0,
		"O29":       0,
	} {
		d.Set("dummy", code, v)
	}
	return d
}

func (d *Dummy) AddDevice(dev device.Device) {
	d.Lock()
	defer d.Unlock()
	d.devices = append(d.devices, dev)
	if d.registers[dev.DeviceCode] == nil {
		d.registers[dev.DeviceCode] = make(map[string]device.Register)
	}
}

func (d *Dummy) RemoveDevice(deviceCode string) {
	d.Lock()
	defer d.Unlock()
	for i, dev := range d.devices {
		if dev.DeviceCode == deviceCode {
			d.devices = append(d.devices[:i], d.devices[i+1:]...)
			break
		}
	}
	delete(d.registers, deviceCode)
}

func (d *Dummy) Set(deviceCode, code string, value interface{}) {
	d.Lock()
	defer d.Unlock()
	if d.registers[deviceCode] == nil {
		d.registers[deviceCode] = make(map[string]device.Register)
	}
	d.registers[deviceCode][code] = device.Register{Value: value}
}

// Fail makes every following call return err. Fail(nil) restores normal operation.
func (d *Dummy) Fail(err error) {
	d.Lock()
	d.err = err
	d.Unlock()
}

func (d *Dummy) Writes() []Write {
	d.Lock()
	defer d.Unlock()
	return append([]Write(nil), d.writes...)
}

func (d *Dummy) Logins() int {
	d.Lock()
	defer d.Unlock()
	return d.logins
}

func (d *Dummy) Login(ctx context.Context) (string, error) {
	d.Lock()
	defer d.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.logins++
	return "dummytoken", nil
}

func (d *Dummy) ListDevices(ctx context.Context) ([]device.Device, error) {
	d.Lock()
	defer d.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return append([]device.Device(nil), d.devices...), nil
}

func (d *Dummy) ReadParams(ctx context.Context, deviceCode string, codes []string) (map[string]device.Register, error) {
	d.Lock()
	defer d.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	params := make(map[string]device.Register)
	for _, code := range codes {
		if r, ok := d.registers[deviceCode][code]; ok {
			params[code] = r
		}
	}
	return params, nil
}

func (d *Dummy) WriteParam(ctx context.Context, deviceCode, code string, value interface{}) (bool, error) {
	d.Lock()
	defer d.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.registers[deviceCode] == nil {
		return false, nil
	}
	logrus.Infof("dummy: WriteParam %s %s=%v", deviceCode, code, value)
	d.writes = append(d.writes, Write{DeviceCode: deviceCode, Code: code, Value: value})
	d.registers[deviceCode][code] = device.Register{Value: coerce(value)}
	return true, nil
}

// Handler exposes /dummy/set?device=x&code=T02&value=47 and /dummy/fail?kind=auth|connectivity|none.
func (d *Dummy) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/dummy/set", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		dev, code, value := q.Get("device"), q.Get("code"), q.Get("value")
		if dev == "" || code == "" {
			http.Error(w, "device and code are required", http.StatusBadRequest)
			return
		}
		logrus.Infof("dummy: setting %s %s=%s", dev, code, value)
		d.Set(dev, code, coerce(value))
		fmt.Fprintf(w, "set %s %s=%s\n", dev, code, value)
	})
	mux.HandleFunc("/dummy/fail", func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Query().Get("kind") {
		case "auth":
			d.Fail(fmt.Errorf("%w: dummy", ErrAuth))
		case "connectivity":
			d.Fail(fmt.Errorf("%w: dummy", ErrConnectivity))
		default:
			d.Fail(nil)
		}
		fmt.Fprintf(w, "ok\n")
	})
	mux.HandleFunc("/dummy/writes", func(w http.ResponseWriter, req *http.Request) {
		var lines []string
		for _, wr := range d.Writes() {
			lines = append(lines, fmt.Sprintf("%s %s=%v", wr.DeviceCode, wr.Code, wr.Value))
		}
		fmt.Fprintf(w, "%s\n", strings.Join(lines, "\n"))
	})
	return mux
}
