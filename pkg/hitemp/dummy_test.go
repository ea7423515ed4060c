package hitemp

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDummyWriteIsVisibleOnRead(t *testing.T) {
	d := NewDummyHeater()
	ok, err := d.WriteParam(context.TODO(), "dummy", "R01", "60")
	assert.NoError(t, err)
	assert.True(t, ok)

	params, err := d.ReadParams(context.TODO(), "dummy", []string{"R01", "T02"})
	assert.NoError(t, err)
	assert.Equal(t, 60.0, *params["R01"].Float())
	assert.Equal(t, 45.0, *params["T02"].Float())
	assert.Equal(t, []Write{{DeviceCode: "dummy", Code: "R01", Value: "60"}}, d.Writes())

	ok, err = d.WriteParam(context.TODO(), "unknown", "R01", 60)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDummyFail(t *testing.T) {
	d := NewDummyHeater()
	d.Fail(fmt.Errorf("%w: down", ErrConnectivity))
	_, err := d.ListDevices(context.TODO())
	assert.True(t, errors.Is(err, ErrConnectivity))

	d.Fail(nil)
	devices, err := d.ListDevices(context.TODO())
	assert.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestDummyHandler(t *testing.T) {
	d := NewDummyHeater()
	h := d.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/dummy/set?device=dummy&code=T02&value=48.5", nil))
	assert.Equal(t, 200, w.Code)
	params, err := d.ReadParams(context.TODO(), "dummy", []string{"T02"})
	assert.NoError(t, err)
	assert.Equal(t, 48.5, *params["T02"].Float())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/dummy/fail?kind=auth", nil))
	_, err = d.Login(context.TODO())
	assert.True(t, IsAuth(err))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/dummy/set?code=T02", nil))
	assert.Equal(t, 400, w.Code)
}
