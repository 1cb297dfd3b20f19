package main

import (
	"os"

	"github.com/adaptlearn/termtutor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
