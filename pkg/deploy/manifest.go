package deploy

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/scheme"
)

// Params holds run parameters substituted into the manifest before decoding.
// Keys are referenced from the manifest as ${NAME}.
type Params map[string]string

var paramRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadManifest reads a multi-document YAML manifest from path, expands ${NAME}
// references for names present in params, and decodes each document into a
// typed API object.
func LoadManifest(path string, params Params) ([]runtime.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	objs, err := ParseManifest(data, params)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return objs, nil
}

// ParseManifest decodes a multi-document YAML manifest into typed API objects.
// ${NAME} references without a matching entry in params are left untouched so
// shell fragments inside the Job command survive substitution.
func ParseManifest(data []byte, params Params) ([]runtime.Object, error) {
	expanded := expandParams(string(data), params)

	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	deserializer := scheme.Codecs.UniversalDeserializer()

	var objs []runtime.Object
	for docIndex := 0; ; docIndex++ {
		var doc map[string]interface{}
		err := decoder.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document %d: %w", docIndex, err)
		}
		if len(doc) == 0 {
			continue
		}

		raw, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("re-encode document %d: %w", docIndex, err)
		}

		obj, _, err := deserializer.Decode(raw, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("decode document %d (kind %q): %w", docIndex, docKind(doc), err)
		}
		objs = append(objs, obj)
	}

	if len(objs) == 0 {
		return nil, fmt.Errorf("no objects found")
	}
	return objs, nil
}

func expandParams(s string, params Params) string {
	if len(params) == 0 {
		return s
	}
	return paramRef.ReplaceAllStringFunc(s, func(ref string) string {
		name := paramRef.FindStringSubmatch(ref)[1]
		if value, ok := params[name]; ok {
			return value
		}
		return ref
	})
}

func docKind(doc map[string]interface{}) string {
	kind, _ := doc["kind"].(string)
	return kind
}
