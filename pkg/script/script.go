package script

import (
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vstore/internal/errors"
)

// Format is a script or state file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New("E151").WithDetailf("%q", path)
}

// Script is a replayable store session: an initial state, watchers to
// report on, and commits to apply in order.
//
//	name: cart
//	state:
//	  items: []
//	  total: 0
//	watch:
//	  - path: total
//	  - path: items
//	    deep: true
//	commits:
//	  - type: push
//	    payload: {path: items, value: apple}
//	  - type: increment
//	    payload: {path: total, by: 3}
//	expect:
//	  total: 3
//	  "items[0]": apple
type Script struct {
	Name    string         `json:"name" yaml:"name" toml:"name"`
	State   map[string]any `json:"state" yaml:"state" toml:"state"`
	Watch   []WatchStep    `json:"watch,omitempty" yaml:"watch,omitempty" toml:"watch,omitempty"`
	Commits []CommitStep   `json:"commits" yaml:"commits" toml:"commits"`

	// Expect maps state paths to their expected final values.
	Expect map[string]any `json:"expect,omitempty" yaml:"expect,omitempty" toml:"expect,omitempty"`

	// ContinueOnError keeps replaying after a failed commit.
	ContinueOnError bool `json:"continueOnError,omitempty" yaml:"continue_on_error,omitempty" toml:"continue_on_error,omitempty"`
}

// WatchStep registers a watcher on a state path.
type WatchStep struct {
	Path      string `json:"path" yaml:"path" toml:"path"`
	Deep      bool   `json:"deep,omitempty" yaml:"deep,omitempty" toml:"deep,omitempty"`
	Immediate bool   `json:"immediate,omitempty" yaml:"immediate,omitempty" toml:"immediate,omitempty"`
}

// CommitStep commits one mutation.
type CommitStep struct {
	Type    string `json:"type" yaml:"type" toml:"type"`
	Payload any    `json:"payload,omitempty" yaml:"payload,omitempty" toml:"payload,omitempty"`
}

// Load reads a script file, choosing the decoder by extension.
func Load(path string) (*Script, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E150").WithDetail(path).Wrap(err)
	}
	sc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Decode parses a script.
func Decode(data []byte, format Format) (*Script, error) {
	var sc Script
	if err := unmarshal(data, format, &sc); err != nil {
		return nil, err
	}
	if sc.State == nil {
		sc.State = map[string]any{}
	}
	for i, c := range sc.Commits {
		if c.Type == "" {
			return nil, errors.New("E150").WithDetailf("commits[%d] has no type", i)
		}
	}
	return &sc, nil
}

// LoadState reads a state file: a single object in any supported format.
func LoadState(path string) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E150").WithDetail(path).Wrap(err)
	}
	state := map[string]any{}
	if err := unmarshal(data, format, &state); err != nil {
		return nil, err
	}
	return state, nil
}

func unmarshal(data []byte, format Format, v any) error {
	var err error
	switch format {
	case FormatJSON:
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, v)
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	case FormatTOML:
		err = toml.Unmarshal(data, v)
	default:
		return errors.New("E151").WithDetailf("format %q", format)
	}
	if err != nil {
		return errors.New("E150").WithDetailf("decoding %s", format).Wrap(err)
	}
	return nil
}
