package cop

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"
)

// SpecificHeatKWh is the specific heat of water in kWh/(kg*K).
const SpecificHeatKWh = 0.001163

type tracking struct {
	meter  float64
	stored *float64
	cop    *float64
}

// Estimator calculates COP from the change in stored tank energy between two energy meter readings.
type Estimator struct {
	volume       float64
	specificHeat float64
	devices      map[string]*tracking
	mutex        sync.RWMutex
}

func New(volumeLiters float64) *Estimator {
	return &Estimator{
		volume:       volumeLiters,
		specificHeat: SpecificHeatKWh,
		devices:      make(map[string]*tracking),
	}
}

// StoredEnergy returns kWh stored in the tank at the given temperature. nil in gives nil out.
func (e *Estimator) StoredEnergy(temperature *float64) *float64 {
	if temperature == nil {
		return nil
	}
	v := e.volume * e.specificHeat * *temperature
	return &v
}

// Update is called once per cycle. Nothing happens unless the meter reading changed.
func (e *Estimator) Update(deviceCode string, meter, stored *float64) {
	if meter == nil {
		return
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	t, ok := e.devices[deviceCode]
	if !ok {
		e.devices[deviceCode] = &tracking{meter: *meter, stored: copyFloat(stored)}
		return
	}
	if *meter == t.meter {
		return
	}

	deltaMeter := *meter - t.meter
	if deltaMeter > 0 && stored != nil && t.stored != nil {
		v := math.Round((*stored-*t.stored)/deltaMeter*100) / 100
		t.cop = &v
		logrus.WithFields(logrus.Fields{
			"device": deviceCode,
			"meter":  *meter,
			"cop":    v,
		}).Debug("cop: updated")
	} else {
		logrus.WithFields(logrus.Fields{
			"device": deviceCode,
			"from":   t.meter,
			"to":     *meter,
		}).Debug("cop: skipping sample")
	}
	t.meter = *meter
	t.stored = copyFloat(stored)
}

func (e *Estimator) COP(deviceCode string) *float64 {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	t, ok := e.devices[deviceCode]
	if !ok {
		return nil
	}
	return copyFloat(t.cop)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
