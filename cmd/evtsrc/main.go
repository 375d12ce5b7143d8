// Command evtsrc serves and consumes server-sent event streams.
//
//	evtsrc serve  --port 8080       # GET /events, POST /emit, POST /close
//	evtsrc listen --url http://localhost:8080/events
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/evtsrc/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// configLoader loads the configuration selected by the persistent flags.
type configLoader func() (*AppConfig, error)

func newRootCmd() *cobra.Command {
	var configFile, envFile string

	rootCmd := &cobra.Command{
		Use:          "evtsrc",
		Short:        "Server-sent events producer and consumer",
		Long:         "evtsrc serves an SSE stream that ends with an end-of-stream marker, and listens to one until the marker arrives.",
		Version:      version.Get().Short(),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file")

	load := func() (*AppConfig, error) {
		cfg, err := loadConfig(configFile, envFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	rootCmd.AddCommand(newServeCmd(load))
	rootCmd.AddCommand(newListenCmd(load))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}
