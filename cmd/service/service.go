package service

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/martinsuchenak/connprops/internal/config"
	"github.com/martinsuchenak/connprops/internal/model"
	"github.com/martinsuchenak/connprops/internal/propsync"
	"github.com/paularlott/cli"
)

func Commands() []*cli.Command {
	return []*cli.Command{
		GetCommand(),
		EditCommand(),
		HistoryCommand(),
	}
}

func getDefaultServerURL() string {
	cfg := config.Load()
	if cfg.ListenAddr == "" {
		return "http://localhost:8080"
	}
	return "http://localhost" + cfg.ListenAddr
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "server", Usage: "Server URL", DefaultValue: getDefaultServerURL()},
		&cli.StringFlag{Name: "api-token", Usage: "API authentication token", EnvVars: []string{"CONNPROPS_API_TOKEN"}},
	}
}

func makeRequest(method, url, token string, body *strings.Reader) (*http.Response, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, url, body)
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return client.Do(req)
}

func listLine(text string) string {
	return strings.Join(propsync.NormalizeList(text), ", ")
}

func printFields(f *model.Fields) {
	fmt.Printf("AutoConnect:   %t\n", f.General.AutoConnect)
	fmt.Printf("Nameservers:   %s\n", listLine(f.Nameservers))
	fmt.Printf("Timeservers:   %s\n", listLine(f.Timeservers))
	fmt.Printf("Domains:       %s\n", listLine(f.Domains))
	printIPv4(&f.IPv4)
	printIPv6(&f.IPv6)
	printProxy(&f.Proxy)
}

func printIPv4(v *model.IPv4) {
	fmt.Println("IPv4:")
	fmt.Printf("  Method:      %s\n", v.Method)
	fmt.Printf("  Address:     %s\n", v.Address)
	fmt.Printf("  Netmask:     %s\n", v.Netmask)
	fmt.Printf("  Gateway:     %s\n", v.Gateway)
}

func printIPv6(v *model.IPv6) {
	fmt.Println("IPv6:")
	fmt.Printf("  Method:      %s\n", v.Method)
	fmt.Printf("  Prefix:      %d\n", v.PrefixLength)
	fmt.Printf("  Address:     %s\n", v.Address)
	fmt.Printf("  Gateway:     %s\n", v.Gateway)
	fmt.Printf("  Privacy:     %s\n", v.Privacy)
}

func printProxy(v *model.Proxy) {
	fmt.Println("Proxy:")
	fmt.Printf("  Method:      %s\n", v.Method)
	fmt.Printf("  URL:         %s\n", v.URL)
	fmt.Printf("  Servers:     %s\n", listLine(v.Servers))
	fmt.Printf("  Excludes:    %s\n", listLine(v.Excludes))
}

func printSection(f *model.Fields, s model.Section) {
	switch s {
	case model.SectionGeneral:
		fmt.Printf("AutoConnect:   %t\n", f.General.AutoConnect)
	case model.SectionNameservers:
		fmt.Printf("Nameservers:   %s\n", listLine(f.Nameservers))
	case model.SectionTimeservers:
		fmt.Printf("Timeservers:   %s\n", listLine(f.Timeservers))
	case model.SectionDomains:
		fmt.Printf("Domains:       %s\n", listLine(f.Domains))
	case model.SectionIPv4:
		printIPv4(&f.IPv4)
	case model.SectionIPv6:
		printIPv6(&f.IPv6)
	case model.SectionProxy:
		printProxy(&f.Proxy)
	}
}

func printCommit(resp *model.CommitResponse) {
	if len(resp.Requests) == 0 {
		fmt.Println("No changes")
		return
	}
	if resp.DryRun {
		for _, req := range resp.Requests {
			fmt.Printf("would set\t%s\t%v\n", req.Key, req.Value)
		}
		return
	}
	for _, res := range resp.Results {
		status := "ok"
		if !res.OK {
			status = "failed: " + res.Error
		}
		fmt.Printf("%s\t%s\n", res.Request.Key, status)
	}
	fmt.Printf("Commit: %s\n", resp.CommitID)
}
