package modbusclient

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/goburrow/modbus"
	"github.com/sirupsen/logrus"
)

// Client reads the registers an energy meter may keep its counter in.
type Client interface {
	ReadInputRegister(address uint16) (int, error)
	ReadHoldingRegister32(address uint16) (int, error)
	ReadHoldingRegister16(address uint16) (int, error)
	ReadHoldingRegisterUint32(address uint16) (uint32, error)
}

type client struct {
	client modbus.Client
	close  func() error
}

func New(c modbus.Client, close func() error) *client {
	return &client{
		client: c,
		close:  close,
	}
}

// Dial returns a modbus tcp client. The connection is opened on first request and reopened after broken pipes and timeouts.
func Dial(address string, slaveID byte) *client {
	handler := modbus.NewTCPClientHandler(address)
	handler.SlaveId = slaveID
	handler.Timeout = 5 * time.Second
	return New(modbus.NewClient(handler), handler.Close)
}

func (c *client) Close() error {
	return c.close()
}

func (c *client) closeIfNeeded(e error) {
	if e == nil {
		return
	}

	if errors.Is(e, syscall.EPIPE) {
		logrus.Warn("reconnect due to broken pipe")
		err := c.close()
		if err != nil {
			logrus.Errorf("error closing client: %s", err)
		}
	}

	if errors.Is(e, os.ErrDeadlineExceeded) {
		logrus.Warn("reconnect due to i/o timeout")
		err := c.close()
		if err != nil {
			logrus.Errorf("error closing client: %s", err)
		}
	}
}

// ReadInputRegister reads a single signed input register.
func (c *client) ReadInputRegister(address uint16) (int, error) {
	b, err := c.client.ReadInputRegisters(address, 1)
	if err != nil {
		c.closeIfNeeded(err)
		err = fmt.Errorf("error reading address %d: %w", address, err)
	}
	return Decode(b), err
}

func (c *client) ReadHoldingRegister16(address uint16) (int, error) {
	return c.readHoldingRegister(address, 1)
}

// ReadHoldingRegister32 reads two registers as a signed value, high word first.
func (c *client) ReadHoldingRegister32(address uint16) (int, error) {
	return c.readHoldingRegister(address, 2)
}

// ReadHoldingRegisterUint32 reads two registers as an unsigned counter, high word first.
func (c *client) ReadHoldingRegisterUint32(address uint16) (uint32, error) {
	b, err := c.client.ReadHoldingRegisters(address, 2)
	if err != nil {
		c.closeIfNeeded(err)
		return 0, fmt.Errorf("error reading address %d: %w", address, err)
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("error reading address %d: got %d bytes", address, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *client) readHoldingRegister(address, count uint16) (int, error) {
	b, err := c.client.ReadHoldingRegisters(address, count)
	if err != nil {
		c.closeIfNeeded(err)
		err = fmt.Errorf("error reading address %d: %w", address, err)
	}
	return Decode(b), err
}

// Decode interprets one or two registers as a signed big endian value, high word first.
func Decode(data []byte) int {
	switch len(data) {
	case 2:
		return int(int16(binary.BigEndian.Uint16(data)))
	case 4:
		return int(int32(binary.BigEndian.Uint32(data)))
	}
	return 0
}
