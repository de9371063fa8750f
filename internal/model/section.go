package model

import (
	"fmt"
	"strings"
)

// Section is a group of fields edited and committed together
type Section string

const (
	SectionGeneral     Section = "general"
	SectionNameservers Section = "nameservers"
	SectionTimeservers Section = "timeservers"
	SectionDomains     Section = "domains"
	SectionIPv4        Section = "ipv4"
	SectionIPv6        Section = "ipv6"
	SectionProxy       Section = "proxy"
)

// CommitOrder is the order sections are compared and sent in
var CommitOrder = []Section{
	SectionGeneral,
	SectionNameservers,
	SectionTimeservers,
	SectionDomains,
	SectionIPv4,
	SectionIPv6,
	SectionProxy,
}

// connman service property keys
const (
	KeyAutoConnect = "AutoConnect"
	KeyNameservers = "Nameservers.Configuration"
	KeyTimeservers = "Timeservers.Configuration"
	KeyDomains     = "Domains.Configuration"
	KeyIPv4        = "IPv4.Configuration"
	KeyIPv6        = "IPv6.Configuration"
	KeyProxy       = "Proxy.Configuration"
)

var sectionKeys = map[Section]string{
	SectionGeneral:     KeyAutoConnect,
	SectionNameservers: KeyNameservers,
	SectionTimeservers: KeyTimeservers,
	SectionDomains:     KeyDomains,
	SectionIPv4:        KeyIPv4,
	SectionIPv6:        KeyIPv6,
	SectionProxy:       KeyProxy,
}

// Key returns the top-level property a section is written to
func (s Section) Key() string {
	return sectionKeys[s]
}

func (s Section) Valid() bool {
	_, ok := sectionKeys[s]
	return ok
}

// ParseSection accepts section names in any case
func ParseSection(name string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown section %q", name)
	}
	return s, nil
}

// General holds the top-level service flags
type General struct {
	AutoConnect bool `json:"auto_connect"`
}

// IPv4 mirrors IPv4.Configuration
type IPv4 struct {
	Method  string `json:"method"`
	Address string `json:"address"`
	Netmask string `json:"netmask"`
	Gateway string `json:"gateway"`
}

// IPv6 mirrors IPv6.Configuration
type IPv6 struct {
	Method       string `json:"method"`
	PrefixLength uint8  `json:"prefix_length"`
	Address      string `json:"address"`
	Gateway      string `json:"gateway"`
	Privacy      string `json:"privacy"`
}

// Proxy mirrors Proxy.Configuration. Servers and Excludes are free text lists.
type Proxy struct {
	Method   string `json:"method"`
	URL      string `json:"url"`
	Servers  string `json:"servers"`
	Excludes string `json:"excludes"`
}

// Fields is the editable form of a service's configuration. List fields hold
// free text, one entry per line when populated from a baseline.
type Fields struct {
	General     General `json:"general"`
	Nameservers string  `json:"nameservers"`
	Timeservers string  `json:"timeservers"`
	Domains     string  `json:"domains"`
	IPv4        IPv4    `json:"ipv4"`
	IPv6        IPv6    `json:"ipv6"`
	Proxy       Proxy   `json:"proxy"`
}

// Edits is the set of sections a caller submits for commit. A nil section
// was not edited and is never compared.
type Edits struct {
	General     *General `json:"general,omitempty"`
	Nameservers *string  `json:"nameservers,omitempty"`
	Timeservers *string  `json:"timeservers,omitempty"`
	Domains     *string  `json:"domains,omitempty"`
	IPv4        *IPv4    `json:"ipv4,omitempty"`
	IPv6        *IPv6    `json:"ipv6,omitempty"`
	Proxy       *Proxy   `json:"proxy,omitempty"`
}

// Edits returns every section of f as an edit set
func (f Fields) Edits() Edits {
	return Edits{
		General:     &f.General,
		Nameservers: &f.Nameservers,
		Timeservers: &f.Timeservers,
		Domains:     &f.Domains,
		IPv4:        &f.IPv4,
		IPv6:        &f.IPv6,
		Proxy:       &f.Proxy,
	}
}
