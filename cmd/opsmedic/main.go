package main

import (
	"os"

	"github.com/opsmedic/opsmedic/internal/interface/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		cli.GetLogger().Error("%v", err)
		os.Exit(1)
	}
}
