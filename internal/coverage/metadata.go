package coverage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// MetadataItems returns the metadata keys in ascending order, limited to
// key when it is not empty.
func (c *Coverage) MetadataItems(key string) []string {
	if key != "" {
		if _, ok := c.Metadata[key]; ok {
			return []string{key}
		}
		return nil
	}
	keys := make([]string, 0, len(c.Metadata))
	for k := range c.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetMetadata stores key: value in the metadata section of the descriptor
// at path, leaving the rest of the document as written. It reports false
// when the item already holds value.
func SetMetadata(path, key, value string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("empty metadata key")
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return false, fmt.Errorf("descriptor %s is not a mapping", path)
	}
	root := doc.Content[0]

	section := mappingValue(root, "metadata")
	switch {
	case section == nil:
		section = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		root.Content = append(root.Content, stringNode("metadata"), section)
	case section.Kind == yaml.ScalarNode && section.Tag == "!!null":
		section.Kind, section.Tag, section.Value = yaml.MappingNode, "!!map", ""
	case section.Kind != yaml.MappingNode:
		return false, fmt.Errorf("descriptor %s: metadata is not a mapping", path)
	}

	if item := mappingValue(section, key); item != nil {
		if item.Kind == yaml.ScalarNode && item.Value == value {
			return false, nil
		}
		*item = *stringNode(value)
	} else {
		section.Content = append(section.Content, stringNode(key), stringNode(value))
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return false, err
	}
	if err := writeFile(path, out, info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// writeFile replaces path through a rename so readers never see a
// partial descriptor.
func writeFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".descriptor-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
