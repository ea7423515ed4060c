package mqtt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nergy-se/hitemp/pkg/api/v1/meter"
)

// ParseEnergyPayload reads a kWh counter from payload. With an empty field the payload is a plain number,
// otherwise it is a JSON object and field names the counter, for example p1ib_hourly_active_import_q1_q4.
func ParseEnergyPayload(payload []byte, field string) (*meter.Data, error) {
	var kwh float64
	if field == "" {
		v, err := strconv.ParseFloat(string(bytes.TrimSpace(payload)), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid energy payload: %w", err)
		}
		kwh = v
	} else {
		values := make(map[string]json.RawMessage)
		err := json.Unmarshal(payload, &values)
		if err != nil {
			return nil, fmt.Errorf("invalid energy payload: %w", err)
		}
		raw, ok := values[field]
		if !ok {
			return nil, fmt.Errorf("field %s missing in energy payload", field)
		}
		var n json.Number
		err = json.Unmarshal(bytes.Trim(raw, `"`), &n)
		if err != nil {
			return nil, fmt.Errorf("field %s is not a number: %w", field, err)
		}
		kwh, err = n.Float64()
		if err != nil {
			return nil, fmt.Errorf("field %s is not a number: %w", field, err)
		}
	}

	return &meter.Data{
		Model:    "mqtt",
		Time:     time.Now(),
		Total_WH: kwh * 1000,
	}, nil
}
