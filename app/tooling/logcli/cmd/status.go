package cmd

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the node's health",
	Run: func(cmd *cobra.Command, args []string) {
		get(fmt.Sprintf("%s/v1/health", nodeURL))
	},
}

// chainCmd represents the chain command
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Dump the node's full chain",
	Run: func(cmd *cobra.Command, args []string) {
		get(fmt.Sprintf("%s/v1/chain/list", nodeURL))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(chainCmd)
}

// get queries the node and prints the raw response.
func get(url string) {
	resp, err := http.Get(url)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(out))
}
