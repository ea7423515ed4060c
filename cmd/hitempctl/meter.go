package main

import (
	"fmt"

	"github.com/nergy-se/hitemp/pkg/api/v1/meter"
	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/nergy-se/hitemp/pkg/mbus"
	"github.com/nergy-se/hitemp/pkg/modbusclient"
	"github.com/spf13/cobra"
)

var meterOptions struct {
	iface    string
	address  string
	model    string
	id       string
	slave    int
	register uint16
	format   string
	scale    float64
}

func init() {
	f := meterCmd.Flags()
	f.StringVar(&meterOptions.iface, "interface", "modbus", "modbus or mbus")
	f.StringVar(&meterOptions.address, "addr", "", "modbus tcp address or mbus serial device")
	f.StringVar(&meterOptions.model, "model", "generic", "meter model")
	f.StringVar(&meterOptions.id, "id", "1", "mbus primary address")
	f.IntVar(&meterOptions.slave, "slave", 1, "modbus slave id")
	f.Uint16Var(&meterOptions.register, "register", 0, "holding register of the Wh counter")
	f.StringVar(&meterOptions.format, "format", "uint32", "counter format: uint32, int32, int16 or input16")
	f.Float64Var(&meterOptions.scale, "scale", 1, "Wh per counter unit")
	rootCmd.AddCommand(meterCmd)
}

var meterCmd = &cobra.Command{
	Use:   "meter",
	Short: "Read the energy meter used for COP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if meterOptions.address == "" {
			return fmt.Errorf("--addr is required")
		}

		var reader meter.Reader
		switch meterOptions.iface {
		case "modbus":
			if !types.RegisterFormat(meterOptions.format).Valid() {
				return fmt.Errorf("unknown register format %s", meterOptions.format)
			}
			c := modbusclient.Dial(meterOptions.address, byte(meterOptions.slave))
			defer c.Close()
			reader = modbusclient.NewMeter(c, meterOptions.register, types.RegisterFormat(meterOptions.format), meterOptions.scale)
		case "mbus":
			m := mbus.New(meterOptions.address)
			defer m.Close()
			reader = m
		default:
			return fmt.Errorf("unknown meter interface %s", meterOptions.iface)
		}

		data, err := reader.ReadValues(meterOptions.model, meterOptions.id)
		if err != nil {
			return err
		}
		return printJSON(data)
	},
}
