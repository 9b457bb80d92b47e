// Package services maps platform DNS suffixes to the service they host.
package services

import "strings"

// Service pairs a DNS suffix with a human readable label.
type Service struct {
	Suffix string
	Label  string
}

// Known is the static suffix -> label table, in enumeration order.
var Known = []Service{
	{"onmicrosoft.com", "Microsoft Hosted Domain"},
	{"scm.azurewebsites.net", "App Services - Management"},
	{"azurewebsites.net", "App Services"},
	{"p.azurewebsites.net", "App Services"},
	{"cloudapp.net", "App Services"},
	{"file.core.windows.net", "Storage Accounts - Files"},
	{"blob.core.windows.net", "Storage Accounts - Blobs"},
	{"queue.core.windows.net", "Storage Accounts - Queues"},
	{"table.core.windows.net", "Storage Accounts - Tables"},
	{"mail.protection.outlook.com", "Email"},
	{"sharepoint.com", "SharePoint"},
	{"redis.cache.windows.net", "Databases-Redis"},
	{"documents.azure.com", "Databases-Cosmos DB"},
	{"database.windows.net", "Databases-MSSQL"},
	{"vault.azure.net", "Key Vaults"},
	{"azureedge.net", "CDN"},
	{"search.windows.net", "Search Appliance"},
	{"azure-api.net", "API Services"},
}

var bySuffix = func() map[string]string {
	m := make(map[string]string, len(Known))
	for _, s := range Known {
		m[s.Suffix] = s.Label
	}
	return m
}()

// Suffixes returns every known suffix in table order.
func Suffixes() []string {
	out := make([]string, 0, len(Known))
	for _, s := range Known {
		out = append(out, s.Suffix)
	}
	return out
}

// Label returns the service label for host, keyed by everything after its
// first label ("x.blob.core.windows.net" -> "blob.core.windows.net").
func Label(host string) (string, bool) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	_, domain, ok := strings.Cut(host, ".")
	if !ok {
		return "", false
	}
	label, ok := bySuffix[domain]
	return label, ok
}
