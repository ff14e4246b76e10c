package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	noteID   string
	title    string
	noteBody string
)

// noteCmd represents the note command
var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Add or revise a note",
	Run: func(cmd *cobra.Command, args []string) {
		body := struct {
			ID    string `json:"id,omitempty"`
			Title string `json:"title"`
			Body  string `json:"body"`
		}{
			ID:    noteID,
			Title: title,
			Body:  noteBody,
		}

		post(fmt.Sprintf("%s/v1/note", nodeURL), body)
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.Flags().StringVarP(&noteID, "id", "i", "", "Id of an existing note to revise.")
	noteCmd.Flags().StringVarP(&title, "title", "t", "", "Title of the note.")
	noteCmd.Flags().StringVarP(&noteBody, "body", "b", "", "Body of the note.")
}
