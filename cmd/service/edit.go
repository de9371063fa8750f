package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
	"github.com/paularlott/cli"
)

// fieldSetter applies one flag value to the edited fields
type fieldSetter struct {
	flag  string
	usage string
	set   func(f *model.Fields, v string) error
}

var fieldSetters = []fieldSetter{
	{"autoconnect", "Connect automatically (true/false)", func(f *model.Fields, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("autoconnect: %w", err)
		}
		f.General.AutoConnect = b
		return nil
	}},
	{"nameservers", "Nameservers, separated by commas, semicolons or spaces", func(f *model.Fields, v string) error { f.Nameservers = v; return nil }},
	{"timeservers", "Timeservers, separated by commas, semicolons or spaces", func(f *model.Fields, v string) error { f.Timeservers = v; return nil }},
	{"domains", "Search domains, separated by commas, semicolons or spaces", func(f *model.Fields, v string) error { f.Domains = v; return nil }},
	{"ipv4-method", "IPv4 method (off, dhcp, manual)", func(f *model.Fields, v string) error { f.IPv4.Method = v; return nil }},
	{"ipv4-address", "IPv4 address", func(f *model.Fields, v string) error { f.IPv4.Address = v; return nil }},
	{"ipv4-netmask", "IPv4 netmask", func(f *model.Fields, v string) error { f.IPv4.Netmask = v; return nil }},
	{"ipv4-gateway", "IPv4 gateway", func(f *model.Fields, v string) error { f.IPv4.Gateway = v; return nil }},
	{"ipv6-method", "IPv6 method (off, auto, manual)", func(f *model.Fields, v string) error { f.IPv6.Method = v; return nil }},
	{"ipv6-prefix-length", "IPv6 prefix length (0-128)", func(f *model.Fields, v string) error {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil || n > 128 {
			return fmt.Errorf("ipv6-prefix-length: %q is not between 0 and 128", v)
		}
		f.IPv6.PrefixLength = uint8(n)
		return nil
	}},
	{"ipv6-address", "IPv6 address", func(f *model.Fields, v string) error { f.IPv6.Address = v; return nil }},
	{"ipv6-gateway", "IPv6 gateway", func(f *model.Fields, v string) error { f.IPv6.Gateway = v; return nil }},
	{"ipv6-privacy", "IPv6 privacy (disabled, enabled, preferred)", func(f *model.Fields, v string) error { f.IPv6.Privacy = v; return nil }},
	{"proxy-method", "Proxy method (direct, auto, manual)", func(f *model.Fields, v string) error { f.Proxy.Method = v; return nil }},
	{"proxy-url", "Proxy auto-configuration URL", func(f *model.Fields, v string) error { f.Proxy.URL = v; return nil }},
	{"proxy-servers", "Proxy servers", func(f *model.Fields, v string) error { f.Proxy.Servers = v; return nil }},
	{"proxy-excludes", "Hosts excluded from the proxy", func(f *model.Fields, v string) error { f.Proxy.Excludes = v; return nil }},
}

// applyFlags overlays set values onto f, then blanks every field named in clear.
func applyFlags(f *model.Fields, values map[string]string, clear []string) error {
	known := make(map[string]fieldSetter, len(fieldSetters))
	for _, fs := range fieldSetters {
		known[fs.flag] = fs
		if v := values[fs.flag]; v != "" {
			if err := fs.set(f, v); err != nil {
				return err
			}
		}
	}

	for _, name := range clear {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fs, ok := known[name]
		if !ok {
			return fmt.Errorf("cannot clear unknown field %q", name)
		}
		switch name {
		case "autoconnect":
			f.General.AutoConnect = false
		case "ipv6-prefix-length":
			f.IPv6.PrefixLength = 0
		default:
			if err := fs.set(f, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

func EditCommand() *cli.Command {
	flags := serverFlags()
	for _, fs := range fieldSetters {
		flags = append(flags, &cli.StringFlag{Name: fs.flag, Usage: fs.usage})
	}
	flags = append(flags,
		&cli.StringFlag{Name: "clear", Usage: "Comma-separated fields to blank, e.g. ipv4-gateway,domains"},
		&cli.BoolFlag{Name: "dry-run", Usage: "Show the updates without sending them"},
	)

	return &cli.Command{
		Name:        "edit",
		Usage:       "Edit a service's configuration",
		Description: "Change connman service settings; only sections that differ from the current configuration are sent",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: flags,
		Run: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.GetStringArg("id")
			server := cmd.GetString("server")
			token := cmd.GetString("api-token")
			log.Debug("Editing service", "id", id, "server", server)

			fields, err := fetchFields(server, token, id)
			if err != nil {
				return err
			}

			values := make(map[string]string, len(fieldSetters))
			for _, fs := range fieldSetters {
				values[fs.flag] = cmd.GetString(fs.flag)
			}
			if err := applyFlags(fields, values, strings.Split(cmd.GetString("clear"), ",")); err != nil {
				return err
			}

			data, err := json.Marshal(fields.Edits())
			if err != nil {
				log.Error("Failed to marshal edits", "error", err, "id", id)
				return err
			}

			endpoint := server + "/api/services/" + url.PathEscape(id) + "/commit"
			if cmd.GetBool("dry-run") {
				endpoint += "?dry_run=true"
			}

			resp, err := makeRequest("POST", endpoint, token, strings.NewReader(string(data)))
			if err != nil {
				log.Error("Failed to connect to server for service edit", "error", err, "id", id)
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				log.Error("Server returned error for service edit", "status", resp.StatusCode, "body", string(body), "id", id)
				return fmt.Errorf("server error: %s", string(body))
			}

			var result model.CommitResponse
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				log.Error("Failed to decode commit response", "error", err, "id", id)
				return err
			}

			printCommit(&result)
			for _, res := range result.Results {
				if !res.OK {
					return fmt.Errorf("%s was not applied", res.Request.Key)
				}
			}
			return nil
		},
	}
}
