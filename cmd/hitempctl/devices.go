package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/nergy-se/hitemp/pkg/catalog"
	"github.com/spf13/cobra"
)

func init() {
	readCmd.Flags().StringVar(&readCategory, "category", "", "only read parameters in this category")
	rootCmd.AddCommand(devicesCmd, readCmd, writeCmd)
}

var readCategory string

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices on the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		devices, err := c.ListDevices(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(devices)
	},
}

var readCmd = &cobra.Command{
	Use:   "read <device> [code...]",
	Short: "Read parameters. All known parameters are read if no code is given",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		codes := args[1:]
		if len(codes) == 0 {
			if readCategory != "" {
				for _, p := range catalog.Category(readCategory) {
					codes = append(codes, p.Code)
				}
			} else {
				codes = catalog.Codes()
			}
		}
		params, err := c.ReadParams(cmd.Context(), args[0], codes)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, code := range codes {
			r, ok := params[code]
			if !ok {
				continue
			}
			name, unit := "", ""
			if p, ok := catalog.Lookup(code); ok {
				name, unit = p.Name, p.Unit
			}
			fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", code, r.Value, unit, name)
		}
		return w.Flush()
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <device> <code> <value>",
	Short: "Write one parameter",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ok := catalog.Lookup(args[1])
		if !ok {
			return fmt.Errorf("unknown parameter %s", args[1])
		}
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return err
		}
		err = p.Validate(value)
		if err != nil {
			return err
		}

		c, err := client()
		if err != nil {
			return err
		}
		ok, err = c.WriteParam(cmd.Context(), args[0], p.Code, args[2])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("write of %s rejected", p.Code)
		}
		fmt.Printf("%s=%s\n", p.Code, args[2])
		return nil
	},
}
