package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/redkit/errors"
)

// Layer names, in merge order. The environment layer sits between them.
const (
	DefaultLayer = "default"
	LocalLayer   = "local"
)

// LayerExtensions lists the file extensions tried for each layer, in order.
// The first file that exists wins.
var LayerExtensions = []string{".yml", ".yaml", ".json", ".toml"}

type layerDecoder func(data []byte) (map[string]any, error)

var layerDecoders = map[string]layerDecoder{
	".yml":  decodeYAML,
	".yaml": decodeYAML,
	".json": decodeJSON,
	".toml": decodeTOML,
}

// findLayer returns the first existing file for the named layer in dir.
func findLayer(fs FileSystem, dir, name string) string {
	for _, ext := range LayerExtensions {
		path := filepath.Join(dir, name+ext)
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// readLayer decodes one layer file into a flat key/value map. A nil map with
// a nil error means the layer does not exist.
func readLayer(fs FileSystem, dir, name string) (map[string]Value, string, error) {
	path := findLayer(fs, dir, name)
	if path == "" {
		return nil, "", nil
	}

	ext := filepath.Ext(path)
	decode, ok := layerDecoders[ext]
	if !ok {
		return nil, path, errors.UnsupportedFormat(path, ext)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, path, errors.ConfigRead(path, err)
	}

	raw, err := decode(data)
	if err != nil {
		return nil, path, errors.ConfigParse(path, err)
	}

	layer := make(map[string]Value, len(raw))
	for k, v := range raw {
		layer[k] = ValueOf(v)
	}
	return layer, path, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	// Empty document
	if len(node.Content) == 0 {
		return map[string]any{}, nil
	}
	if root := node.Content[0]; root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}
	out := map[string]any{}
	if err := node.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeJSON(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out := map[string]any{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
