package main

import (
	"fmt"
	"os"

	"github.com/Dosada05/club-scheduler/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
