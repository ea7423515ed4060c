package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

type CliConfig struct {
	Server       string `default:"https://cloud.linked-go.com:449/crmservice/api"`
	Email        string
	Password     string
	PasswordFile string
	InsecureTLS  bool `default:"true"`

	ControllerType        string  `default:"cloud"`
	UpdateIntervalSeconds int     `default:"30"`
	TankVolumeLiters      float64 `default:"300"`

	HTTPListen string `default:":8080"`
	MqttListen string

	MeterInterfaceType string `default:"none"`
	MeterModel         string
	MeterPrimaryID     string
	MeterAddress       string
	MeterTopic         string
	MeterField         string
	MeterRegister      int
	MeterFormat        string  `default:"uint32"`
	MeterScale         float64 `default:"1"`

	LogLevel string `default:"info"`

	mutex sync.RWMutex
}

func (c *CliConfig) Secret() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.Password
}

func (c *CliConfig) SetPassword(p string) {
	c.mutex.Lock()
	c.Password = strings.TrimSpace(p)
	c.mutex.Unlock()
}

// LoadPassword reads the password from PasswordFile if one is configured.
func (c *CliConfig) LoadPassword() error {
	if c.PasswordFile == "" {
		return nil
	}
	b, err := os.ReadFile(c.PasswordFile)
	if err != nil {
		return fmt.Errorf("error reading passwordfile: %w", err)
	}
	if len(b) == 0 {
		return nil // keep password from flags/env
	}
	c.SetPassword(string(b))
	return nil
}
