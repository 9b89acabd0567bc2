package skilldoc

import (
	"bytes"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Encode renders the manifest as canonical YAML front matter: name,
// description, license, metadata in that order, then any preserved extra
// keys sorted by name.
func (m *Manifest) Encode() (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	addScalar := func(key, value string) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value},
		)
	}

	addScalar("name", m.Name)
	addScalar("description", m.Description)
	if m.License != "" {
		addScalar("license", m.License)
	}

	if len(m.Metadata) > 0 {
		metaNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, key := range sortedKeys(m.Metadata) {
			metaNode.Content = append(metaNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: key},
				&yaml.Node{Kind: yaml.ScalarNode, Value: m.Metadata[key]},
			)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "metadata"},
			metaNode,
		)
	}

	extraKeys := make([]string, 0, len(m.Extra))
	for key := range m.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		var valueNode yaml.Node
		if err := valueNode.Encode(m.Extra[key]); err != nil {
			return "", errors.Wrapf(err, "failed to encode front matter key %q", key)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&valueNode,
		)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return "", errors.Wrap(err, "failed to encode front matter")
	}
	if err := encoder.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize front matter")
	}
	buf.WriteString("---\n")

	return buf.String(), nil
}

// Encode renders the full document: canonical front matter, a blank line,
// then the body unchanged.
func (d *Document) Encode() (string, error) {
	frontMatter, err := d.Manifest.Encode()
	if err != nil {
		return "", err
	}

	body := strings.TrimLeft(d.Body, "\n")
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}

	return frontMatter + "\n" + body, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
