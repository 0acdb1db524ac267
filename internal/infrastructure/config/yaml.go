package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses a YAML file and merges its flattened scalar leaves.
//
// Flattening rules:
//   - mapping members join with "." (a: {b: x} → "a.b")
//   - sequence elements render as "name[i]" ({a: [x, y]} → "a[0]", "a[1]")
//   - nested sequences nest their indices ("a[0][1]")
//   - only scalar leaves produce entries; maps and sequences themselves do not
//
// Scalar values keep their source text, so "1.50" stays "1.50" and quoted
// strings survive verbatim.
//
// Returns an error when the file cannot be read or the document is malformed.
func (m *Map) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	m.flattenNode(&root, "")
	return nil
}

// flattenNode walks the YAML node tree, accumulating dotted keys.
func (m *Map) flattenNode(node *yaml.Node, prefix string) {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			m.flattenNode(child, prefix)
		}
	case yaml.MappingNode:
		// Content alternates key, value.
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			child := node.Content[i+1]
			m.flattenNode(child, joinKey(prefix, key))
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			m.flattenNode(child, prefix+"["+strconv.Itoa(i)+"]")
		}
	case yaml.ScalarNode:
		// Null scalars (empty documents, explicit ~) carry no value.
		if node.Tag == "!!null" {
			return
		}
		if prefix != "" {
			m.entries[prefix] = node.Value
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			m.flattenNode(node.Alias, prefix)
		}
	}
}

// joinKey appends a mapping member name to a dotted prefix.
func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
