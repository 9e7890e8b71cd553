package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ledgerlite/ledgerlite/cli"
	"github.com/ledgerlite/ledgerlite/logging"
)

func main() {
	if os.Getenv("LEDGERLITE_DEBUG") != "" {
		logging.SetLevel(logrus.DebugLevel)
	}

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
