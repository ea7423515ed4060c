package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nergy-se/hitemp/pkg/hitemp"
	"github.com/nergy-se/hitemp/pkg/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var options struct {
	server   string
	email    string
	password string
	insecure bool
	verbose  bool
}

var rootCmd = &cobra.Command{
	Use:   "hitempctl",
	Short: "Inspect and change HiTemp water heaters through the cloud api",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if options.verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&options.server, "server", "https://cloud.linked-go.com:449/crmservice/api", "cloud api base url")
	rootCmd.PersistentFlags().StringVar(&options.email, "email", os.Getenv("HITEMP_EMAIL"), "account email")
	rootCmd.PersistentFlags().StringVar(&options.password, "password", os.Getenv("HITEMP_PASSWORD"), "account password")
	rootCmd.PersistentFlags().BoolVar(&options.insecure, "insecure", true, "skip tls verification")
	rootCmd.PersistentFlags().BoolVarP(&options.verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func client() (*hitemp.Client, error) {
	if options.email == "" || options.password == "" {
		return nil, fmt.Errorf("--email and --password are required")
	}
	return hitemp.New(options.server, options.email, options.password, options.insecure), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
