// Package config provides the flat configuration map for iotgw.
//
// Configuration is a single dotted-key → string namespace merged from one or
// more files. YAML trees are flattened on load: mapping members join with
// ".", sequence elements render as "name[i]", and only scalar leaves produce
// entries. Key=value files are supported for the update metadata blobs.
//
// Consumers read canonical paths through the typed accessors:
//
//	m := config.NewMap()
//	if err := m.LoadYAML("config/environments/development.yaml"); err != nil { ... }
//	host, ok := m.GetString("network.http_api.host")
//	port, ok := m.GetInt64("network.http_api.port")
//
// Multiple loads merge with last-write-wins. Malformed individual entries
// are skipped; only unreadable files or malformed YAML documents fail a load.
package config
