package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	author  string
	content string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a chat message",
	Run: func(cmd *cobra.Command, args []string) {
		body := struct {
			Author  string `json:"author"`
			Content string `json:"content"`
		}{
			Author:  author,
			Content: content,
		}

		post(fmt.Sprintf("%s/v1/message", nodeURL), body)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&author, "author", "a", "anonymous", "Author of the message.")
	sendCmd.Flags().StringVarP(&content, "content", "c", "", "Content of the message.")
}

// post sends the value to the node and prints the raw response.
func post(url string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
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
