package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nergy-se/hitemp/pkg/api/v1/config"
	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/nergy-se/hitemp/pkg/app"
	"github.com/nergy-se/hitemp/pkg/hitemp"
	"github.com/nergy-se/hitemp/pkg/modbusclient"
	"github.com/nergy-se/hitemp/pkg/web"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/tbrandon/mbserver"
)

// cloud is a stateful fake of the heater cloud api with one device.
type cloud struct {
	token     string
	logins    int
	registers map[string]interface{}
	writes    []string
	mutex     sync.Mutex
}

func newCloud() *cloud {
	return &cloud{
		token: "tok1",
		registers: map[string]interface{}{
			"Power":     "1",
			"mode_real": "2",
			"R01":       "60",
			"T01":       "18",
			"T02":       "45",
			"T03":       "70",
			"O01":       "0",
			"O02":       "0",
			"O14":       "0",
			"O29":       "60",
		},
	}
}

func (c *cloud) set(code string, value interface{}) {
	c.mutex.Lock()
	c.registers[code] = value
	c.mutex.Unlock()
}

// expire invalidates the current session token.
func (c *cloud) expire() {
	c.mutex.Lock()
	c.token = fmt.Sprintf("tok%d", c.logins+1)
	c.mutex.Unlock()
}

func (c *cloud) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	body := make(map[string]interface{})
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Path == "/app/user/login" {
		c.logins++
		c.token = fmt.Sprintf("tok%d", c.logins)
		reply(w, map[string]interface{}{"error_msg": "Success", "objectResult": map[string]string{"x-token": c.token, "userId": "u1"}})
		return
	}
	if r.Header.Get("x-token") != c.token {
		reply(w, map[string]interface{}{"error_msg": "token expired"})
		return
	}

	switch r.URL.Path {
	case "/app/device/getMyAppectDeviceShareDataList":
		reply(w, map[string]interface{}{"error_msg": "Success", "objectResult": []map[string]string{
			{"deviceCode": "heater1", "deviceNickName": "Basement", "deviceStatus": "ONLINE"},
		}})
	case "/app/device/getDataByCode":
		var items []map[string]interface{}
		for _, code := range body["protocalCodes"].([]interface{}) {
			if v, ok := c.registers[code.(string)]; ok {
				items = append(items, map[string]interface{}{"code": code, "value": v})
			}
		}
		reply(w, map[string]interface{}{"error_msg": "Success", "objectResult": items})
	case "/app/device/control":
		p := body["param"].([]interface{})[0].(map[string]interface{})
		code := p["protocolCode"].(string)
		c.registers[code] = p["value"]
		c.writes = append(c.writes, fmt.Sprintf("%s=%v", code, p["value"]))
		reply(w, map[string]interface{}{"error_msg": "Success"})
	default:
		http.NotFound(w, r)
	}
}

func (c *cloud) Writes() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]string(nil), c.writes...)
}

func reply(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func setup(t *testing.T) (*app.App, *cloud, *mbserver.Server, func()) {
	logrus.SetLevel(logrus.DebugLevel)
	c := newCloud()
	srv := httptest.NewServer(c)

	serv := mbserver.NewServer()
	serv.HoldingRegisters[1] = 0
	serv.HoldingRegisters[2] = 10000 // 10 kWh
	err := serv.ListenTCP("127.0.0.1:15021")
	assert.NoError(t, err)

	cfg := &config.CliConfig{
		Server:                srv.URL,
		Email:                 "user@example.com",
		Password:              "secret",
		ControllerType:        "cloud",
		UpdateIntervalSeconds: 3600,
		TankVolumeLiters:      300,
		MeterInterfaceType:    "modbus",
		MeterAddress:          "127.0.0.1:15021",
		MeterPrimaryID:        "1",
		MeterRegister:         1,
		MeterScale:            1,
	}
	assert.NoError(t, cfg.Validate())

	client := hitemp.New(cfg.Server, cfg.Email, cfg.Secret(), cfg.InsecureTLS)
	a := app.New(cfg, client)
	mc := modbusclient.Dial(cfg.MeterAddress, 1)
	m := cfg.Meter()
	a.SetMeterReader(modbusclient.NewMeter(mc, m.Register, m.Format, m.Scale))

	return a, c, serv, func() {
		mc.Close()
		serv.Close()
		srv.Close()
	}
}

func TestMinimumControlFollowsTank(t *testing.T) {
	a, c, _, done := setup(t)
	defer done()
	ctx := context.TODO()

	assert.NoError(t, a.Setup(ctx))
	assert.NoError(t, a.DoRefresh(ctx))
	assert.True(t, a.Available("heater1"))
	// O01 reads 0 but O29 reports 60 Hz
	assert.True(t, a.IsCompressorRunning("heater1"))

	// R01 60 with max(T02, T03) 70
	assert.Equal(t, 50.0, *a.CalculateImpliedTarget(types.ControlKindMinimum, "heater1"))
	assert.NoError(t, a.EnableControl(types.ControlKindMinimum, "heater1", 50))

	c.set("T03", "74")
	assert.NoError(t, a.DoRefresh(ctx))
	assert.Equal(t, []string{"R01=62"}, c.Writes())

	assert.NoError(t, a.DoRefresh(ctx))
	assert.Equal(t, 62.0, *a.GetFloat("heater1", "R01"))
	assert.Len(t, c.Writes(), 1)
	assert.True(t, a.IsControlEnabled(types.ControlKindMinimum, "heater1"))

	// someone turns the knob on the heater
	c.set("R01", "55")
	assert.NoError(t, a.DoRefresh(ctx))
	assert.False(t, a.IsControlEnabled(types.ControlKindMinimum, "heater1"))
	assert.Len(t, c.Writes(), 1)
}

func TestCOPFromModbusMeter(t *testing.T) {
	a, c, serv, done := setup(t)
	defer done()
	ctx := context.TODO()

	assert.NoError(t, a.DoRefresh(ctx))
	assert.Nil(t, a.GetCOP("heater1"))
	assert.Equal(t, 10.0, *a.Energy().Energy())

	c.set("T02", "55")
	serv.HoldingRegisters[2] = 11000
	assert.NoError(t, a.DoRefresh(ctx))
	// 300 l * 0.001163 * 10 K / 1 kWh
	assert.Equal(t, 3.49, *a.GetCOP("heater1"))
}

func TestSessionExpiry(t *testing.T) {
	a, c, _, done := setup(t)
	defer done()
	ctx := context.TODO()

	assert.NoError(t, a.DoRefresh(ctx))
	c.set("T02", "50")
	c.expire()

	err := a.DoRefresh(ctx)
	assert.True(t, hitemp.IsAuth(err))
	assert.False(t, a.Available("heater1"))
	assert.Equal(t, app.PhaseUninitialized, a.Phase())
	assert.Equal(t, 45.0, *a.GetFloat("heater1", "T02"))

	assert.NoError(t, a.DoRefresh(ctx))
	assert.True(t, a.Available("heater1"))
	assert.Equal(t, 50.0, *a.GetFloat("heater1", "T02"))
}

func TestHTTPAPI(t *testing.T) {
	a, c, _, done := setup(t)
	defer done()

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	assert.NoError(t, a.Start(ctx))
	WaitFor(t, 2*time.Second, "first refresh", a.LastUpdateSuccess)

	srv := httptest.NewServer(web.New(a))
	defer srv.Close()

	req, err := http.NewRequest("PUT", srv.URL+"/api/devices/heater1/params/R01", strings.NewReader(`{"value": 58}`))
	assert.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"R01=58"}, c.Writes())

	// the write schedules a refresh
	WaitFor(t, 2*time.Second, "refresh after write", func() bool {
		v := a.GetFloat("heater1", "R01")
		return v != nil && *v == 58
	})

	resp, err = http.Get(srv.URL + "/api/devices/heater1")
	assert.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.NoError(t, err)
	assert.Contains(t, string(b), `"deviceNickName":"Basement"`)
	assert.Contains(t, string(b), `"available":true`)

	cancel()
	a.Wait()
}

func WaitFor(t *testing.T, timeout time.Duration, msg string, ok func() bool) {
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
