package mbus

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jonaz/gombus"
	"github.com/nergy-se/hitemp/pkg/api/v1/meter"
)

// record positions in the decoded frame per meter model.
type layout struct {
	totalWH  int
	currentW int
	l1A      int
	l2A      int
	l3A      int
}

var models = map[string]layout{
	"garo-GNM3D-MBUS": {totalWH: 0, currentW: 2, l1A: 8, l2A: 9, l3A: 10},
	"generic":         {totalWH: 0, currentW: -1, l1A: -1, l2A: -1, l3A: -1},
}

type Mbus struct {
	device string
	conn   gombus.Conn
	mutex  *sync.Mutex
}

// New reads meters on the serial device, for example /dev/ttyAMA0.
func New(device string) *Mbus {
	return &Mbus{
		device: device,
		mutex:  &sync.Mutex{},
	}
}

func (m *Mbus) init() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.conn != nil {
		return nil
	}
	c, err := gombus.DialSerial(m.device)
	if err != nil {
		return err
	}
	m.conn = c
	return nil
}

func (m *Mbus) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.conn != nil {
		err := m.conn.Close()
		m.conn = nil
		return err
	}
	return nil
}

func (m *Mbus) ReadValues(model, idStr string) (*meter.Data, error) {
	l, ok := models[model]
	if !ok {
		return nil, fmt.Errorf("unsupported mbus meter model %s", model)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, err
	}
	err = m.init()
	if err != nil {
		return nil, err
	}

	frame, err := m.read(id)
	if err != nil {
		m.Close()
		return nil, err
	}

	return decode(frame, l, model, idStr)
}

func decode(frame *gombus.DecodedFrame, l layout, model, id string) (*meter.Data, error) {
	value := func(i int) (float64, error) {
		if i < 0 {
			return 0, nil
		}
		if i >= len(frame.DataRecords) {
			return 0, fmt.Errorf("mbus frame has %d records, need record %d", len(frame.DataRecords), i)
		}
		return frame.DataRecords[i].Value, nil
	}

	data := &meter.Data{
		Id:    id,
		Model: model,
		Time:  time.Now(),
	}
	var err error
	if data.Total_WH, err = value(l.totalWH); err != nil {
		return nil, err
	}
	if data.Current_W, err = value(l.currentW); err != nil {
		return nil, err
	}
	if data.L1_A, err = value(l.l1A); err != nil {
		return nil, err
	}
	if data.L2_A, err = value(l.l2A); err != nil {
		return nil, err
	}
	if data.L3_A, err = value(l.l3A); err != nil {
		return nil, err
	}
	return data, nil
}

func (m *Mbus) read(primaryAddr int) (*gombus.DecodedFrame, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, err := m.conn.Write(gombus.SndNKE(uint8(primaryAddr)))
	if err != nil {
		return nil, err
	}

	err = m.conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	if err != nil {
		return nil, err
	}

	_, err = gombus.ReadSingleCharFrame(m.conn)
	if err != nil {
		return nil, err
	}

	return gombus.ReadSingleFrame(m.conn, primaryAddr)
}
