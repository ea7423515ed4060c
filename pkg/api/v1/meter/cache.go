package meter

import "sync"

type Cache struct {
	data *Data
	sync.RWMutex
}

func (c *Cache) Get() *Data {
	c.RLock()
	defer c.RUnlock()
	return c.data
}

func (c *Cache) Set(d *Data) {
	c.Lock()
	c.data = d
	c.Unlock()
}

// Energy returns the latest meter reading in kWh, nil if no reading has been received yet.
func (c *Cache) Energy() *float64 {
	d := c.Get()
	if d == nil {
		return nil
	}
	kwh := d.TotalKWh()
	return &kwh
}
