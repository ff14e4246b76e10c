package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command. It connects to the node's peer
// endpoint as an observer and streams the blocks the node accepts.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream blocks from the node as an observer",
	Run: func(cmd *cobra.Command, args []string) {
		c, _, err := websocket.DefaultDialer.Dial(peerEndpoint(nodeURL), nil)
		if err != nil {
			log.Fatal(err)
		}
		defer c.Close()

		hello := struct {
			Type string `json:"type"`
			Role string `json:"role"`
		}{
			Type: "hello",
			Role: "observer",
		}

		data, err := json.Marshal(hello)
		if err != nil {
			log.Fatal(err)
		}

		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Fatal(err)
		}

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println(string(msg))
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// peerEndpoint converts the node's http url into its websocket peer endpoint.
func peerEndpoint(nodeURL string) string {
	u, err := url.Parse(nodeURL)
	if err != nil {
		log.Fatal(err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/peer"

	return u.String()
}
