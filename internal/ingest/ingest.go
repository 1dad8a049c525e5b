// Package ingest reads administrative and survey documents from disk and
// returns their JSON encoding, so every source format passes through the same
// record decoders and structural checks.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Supported file extensions.
const (
	ExtJSON      = ".json"
	ExtYAML      = ".yaml"
	ExtYML       = ".yml"
	ExtShapefile = ".shp"
	ExtZIP       = ".zip"
)

// ErrUnsupportedFormat is returned for a file extension no loader handles.
var ErrUnsupportedFormat = eris.New("ingest: unsupported file format")

// Administrative loads an administrative record document (.json, .yaml, .yml).
func Administrative(path string) ([]byte, error) {
	switch ext(path) {
	case ExtJSON:
		return readJSON(path)
	case ExtYAML, ExtYML:
		return readYAML(path)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "administrative document %s", path)
	}
}

// Survey loads a survey record document. Besides JSON and YAML it accepts a
// polygon shapefile, either bare or inside a ZIP archive.
func Survey(path string) ([]byte, error) {
	switch ext(path) {
	case ExtJSON:
		return readJSON(path)
	case ExtYAML, ExtYML:
		return readYAML(path)
	case ExtShapefile:
		return readShapefile(path)
	case ExtZIP:
		return readZIP(path)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "survey document %s", path)
	}
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// readJSON returns the file contents unchanged. Type checking is left to
// the record decoders.
func readJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return data, nil
}

func readYAML(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return YAMLToJSON(raw)
}

// YAMLToJSON converts a YAML document to JSON. Mapping keys are stringified.
func YAMLToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrap(err, "ingest: parse yaml")
	}
	data, err := json.Marshal(jsonValue(doc))
	if err != nil {
		return nil, eris.Wrap(err, "ingest: encode yaml as json")
	}
	return data, nil
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonValue(val)
		}
		return out
	default:
		return v
	}
}
