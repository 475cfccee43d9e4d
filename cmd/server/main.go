// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Gayathri240502/persft-web-sub000/internal/config"
	"github.com/Gayathri240502/persft-web-sub000/internal/server"
)

func main() {
	cmd := &cli.Command{
		Name:   "console",
		Usage:  "Start the operations admin console",
		Flags:  config.Flags(),
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
