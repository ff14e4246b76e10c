// Package cmd contains the log client app.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	nodeURL string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "logcli",
	Short: "Client for the collaborative log node",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
