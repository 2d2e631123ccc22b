package main

import (
	"os"

	"github.com/tamzrod/installer-client/cmd/installerctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
