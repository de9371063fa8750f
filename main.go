package main

import (
	"context"
	"fmt"
	"os"

	"github.com/martinsuchenak/connprops/cmd/server"
	"github.com/martinsuchenak/connprops/cmd/service"
	"github.com/paularlott/cli"
)

var version = "dev"

func main() {
	root := &cli.Command{
		Name:        "connprops",
		Version:     version,
		Usage:       "Edit connman service properties",
		Description: "Load a connman service's configuration, edit it, and send back only the sections that changed",
		Commands: []*cli.Command{
			server.Command(),
			{
				Name:        "service",
				Usage:       "Inspect and edit connman services",
				Description: "Commands that talk to a running connprops server",
				Commands:    service.Commands(),
			},
		},
	}

	if err := root.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
