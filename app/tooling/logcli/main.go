package main

import "github.com/collablog/collablog/app/tooling/logcli/cmd"

func main() {
	cmd.Execute()
}
