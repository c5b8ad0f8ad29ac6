package main

import (
	"os"

	"github.com/bnema/shopper-earnings-bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
