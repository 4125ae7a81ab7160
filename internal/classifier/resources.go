package classifier

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

//go:embed models/*.json shortchat.yaml languages.yaml
var resources embed.FS

const (
	domainModelFile    = "domain.json"
	injectionModelFile = "injection.json"
)

// openResource reads name from dir when dir is set and the file exists,
// otherwise from the embedded defaults.
func openResource(dir, name string) (io.Reader, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return bytes.NewReader(data), nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	}
	embedded := name
	if filepath.Ext(name) == ".json" {
		embedded = "models/" + name
	}
	data, err := resources.ReadFile(embedded)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded %s: %w", name, err)
	}
	return bytes.NewReader(data), nil
}

func loadModel(dir, name string) (*LinearModel, error) {
	r, err := openResource(dir, name)
	if err != nil {
		return nil, err
	}
	m, err := LoadLinearModel(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}
