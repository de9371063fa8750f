package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
	"github.com/paularlott/cli"
)

func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:        "history",
		Usage:       "List applied updates",
		Description: "List property updates sent to connman, newest first",
		Flags: append(serverFlags(),
			&cli.StringFlag{Name: "service", Usage: "Only show updates for this service"},
			&cli.StringFlag{Name: "commit", Usage: "Only show updates from this commit"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of updates", DefaultValue: 50},
		),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			q := url.Values{}
			if s := cmd.GetString("service"); s != "" {
				q.Set("service", s)
			}
			if c := cmd.GetString("commit"); c != "" {
				q.Set("commit", c)
			}
			if n := cmd.GetInt("limit"); n > 0 {
				q.Set("limit", strconv.Itoa(n))
			}

			endpoint := cmd.GetString("server") + "/api/history"
			if len(q) > 0 {
				endpoint += "?" + q.Encode()
			}
			log.Debug("Listing history", "url", endpoint)

			resp, err := makeRequest("GET", endpoint, cmd.GetString("api-token"), nil)
			if err != nil {
				log.Error("Failed to connect to server for history", "error", err)
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				log.Error("Server returned error for history", "status", resp.Status)
				return fmt.Errorf("server error: %s", resp.Status)
			}

			var records []model.UpdateRecord
			if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
				log.Error("Failed to decode history response", "error", err)
				return err
			}

			printHistory(records)
			return nil
		},
	}
}

func printHistory(records []model.UpdateRecord) {
	if len(records) == 0 {
		fmt.Println("No updates found")
		return
	}
	for _, r := range records {
		status := r.Status
		if r.Error != "" {
			status += " (" + r.Error + ")"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n", r.CreatedAt.Format(time.RFC3339), r.CommitID, r.ServiceID, r.Key, r.Payload, status)
	}
}
