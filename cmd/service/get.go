package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
	"github.com/paularlott/cli"
)

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Show a service's configuration",
		Description: "Show the editable configuration of a connman service, or one section of it",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: append(serverFlags(),
			&cli.StringFlag{Name: "section", Usage: "Only show this section (general, nameservers, timeservers, domains, ipv4, ipv6, proxy)"},
		),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.GetStringArg("id")
			server := cmd.GetString("server")
			log.Debug("Getting service", "id", id, "server", server)

			fields, err := fetchFields(server, cmd.GetString("api-token"), id)
			if err != nil {
				return err
			}

			if name := cmd.GetString("section"); name != "" {
				section, err := model.ParseSection(name)
				if err != nil {
					return err
				}
				printSection(fields, section)
				return nil
			}

			printFields(fields)
			return nil
		},
	}
}

func fetchFields(server, token, id string) (*model.Fields, error) {
	resp, err := makeRequest("GET", server+"/api/services/"+url.PathEscape(id), token, nil)
	if err != nil {
		log.Error("Failed to connect to server for service get", "error", err, "id", id)
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Warn("Service not found", "id", id)
		return nil, fmt.Errorf("service not found")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error("Server returned error for service get", "status", resp.StatusCode, "body", string(body), "id", id)
		return nil, fmt.Errorf("server error: %s", string(body))
	}

	var fields model.Fields
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		log.Error("Failed to decode service response", "error", err, "id", id)
		return nil, err
	}
	return &fields, nil
}
