package meter

import "time"

// Reader is implemented by meters that are polled (mbus, modbus).
type Reader interface {
	ReadValues(model, id string) (*Data, error)
}

type Data struct {
	Id        string    `json:"id"`
	Model     string    `json:"model"`
	Time      time.Time `json:"time"`
	Current_W float64   `json:"w,omitempty"`
	Total_WH  float64   `json:"wh,omitempty"`
	L1_A      float64   `json:"l1_a,omitempty"`
	L2_A      float64   `json:"l2_a,omitempty"`
	L3_A      float64   `json:"l3_a,omitempty"`
}

// TotalKWh is the accumulated energy counter in kWh.
func (d Data) TotalKWh() float64 {
	return d.Total_WH / 1000.0
}
