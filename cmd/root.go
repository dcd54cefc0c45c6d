package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sensornode",
	Short: "Temperature and humidity sensor node",
	Long: "sensornode joins the network, samples its sensor on a fixed interval " +
		"and reports readings to the collector, showing its state on an indicator.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}
