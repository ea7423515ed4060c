package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/koding/multiconfig"
	"github.com/nergy-se/hitemp/pkg/api/v1/config"
	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/nergy-se/hitemp/pkg/app"
	"github.com/nergy-se/hitemp/pkg/hitemp"
	"github.com/nergy-se/hitemp/pkg/mbus"
	"github.com/nergy-se/hitemp/pkg/modbusclient"
	"github.com/nergy-se/hitemp/pkg/mqtt"
	"github.com/nergy-se/hitemp/pkg/version"
	"github.com/nergy-se/hitemp/pkg/web"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()
	err := Run(ctx)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	config := &config.CliConfig{}
	err := multiconfig.New().Load(config)
	if err != nil {
		return err
	}
	lvl, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("error setting logrus loglevel: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.Infof("starting hitempcontroller version: %s", version.Version)

	err = config.LoadPassword()
	if err != nil {
		return err
	}
	err = config.Validate()
	if err != nil {
		return err
	}

	var transport app.Transport
	var dummy *hitemp.Dummy
	switch types.ControllerType(config.ControllerType) {
	case types.ControllerTypeDummy:
		dummy = hitemp.NewDummyHeater()
		transport = dummy
	default:
		transport = hitemp.New(config.Server, config.Email, config.Secret(), config.InsecureTLS)
	}

	a := app.New(config, transport)

	meterCfg := config.Meter()
	switch meterCfg.InterfaceType {
	case types.MeterInterfaceMbus:
		m := mbus.New(meterCfg.Address)
		defer m.Close()
		a.SetMeterReader(m)
	case types.MeterInterfaceModbus:
		slaveID, err := strconv.Atoi(meterCfg.PrimaryID)
		if err != nil {
			slaveID = 1
		}
		c := modbusclient.Dial(meterCfg.Address, byte(slaveID))
		defer c.Close()
		a.SetMeterReader(modbusclient.NewMeter(c, meterCfg.Register, meterCfg.Format, meterCfg.Scale))
	}

	if config.MqttListen != "" {
		broker, err := mqtt.Start(ctx, a.WaitGroup(), config.MqttListen)
		if err != nil {
			return fmt.Errorf("error starting mqtt: %w", err)
		}
		a.SetPublisher(broker)
		if meterCfg.InterfaceType == types.MeterInterfaceMQTT {
			err = broker.SubscribeMeter(meterCfg.Topic, meterCfg.Field, a.Energy())
			if err != nil {
				return fmt.Errorf("error subscribing to %s: %w", meterCfg.Topic, err)
			}
		}
	}

	server := web.New(a)
	if dummy != nil {
		server.Mount("/dummy/", dummy.Handler())
	}
	if config.HTTPListen != "" {
		server.Start(ctx, a.WaitGroup(), config.HTTPListen)
	}

	err = a.Start(ctx)
	if err != nil {
		return err
	}

	a.Wait()
	return nil
}
