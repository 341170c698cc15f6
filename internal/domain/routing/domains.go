package routing

import (
	"sort"
	"strings"
)

// DomainTable maps sender email domains to client codes.
type DomainTable map[string]string

// DefaultDomains is the agency's known client domains.
func DefaultDomains() DomainTable {
	return DomainTable{
		"one.nz":            "ONE",
		"sky.co.nz":         "SKY",
		"tower.co.nz":       "TOW",
		"fisherfunds.co.nz": "FIS",
		"firestop.co.nz":    "FST",
		"whakarongorau.nz":  "WKA",
		"labour.org.nz":     "LAB",
		"eonfibre.co.nz":    "EON",
	}
}

// CodeFor returns the client code for a sender address, matching the
// address domain or any of its subdomains. Longer domains win.
func (t DomainTable) CodeFor(address string) string {
	domain := addressDomain(address)
	if domain == "" {
		return ""
	}
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys {
		k := strings.ToLower(key)
		if domain == k || strings.HasSuffix(domain, "."+k) {
			return t[key]
		}
	}
	return ""
}

func addressDomain(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.LastIndex(address, "<"); i >= 0 {
		address = strings.TrimSuffix(address[i+1:], ">")
	}
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(address[at+1:], " >."))
}
