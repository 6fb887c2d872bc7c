package main

import "github.com/anemonelab/agenthub/cmd/agentctl/commands"

func main() {
	commands.Execute()
}
