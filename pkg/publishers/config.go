package publishers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Sink types.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
)

// Config declares one sink. Only the block matching Type is read; each sink
// checks its own block when it is built.
type Config struct {
	ID      string        `json:"id" yaml:"id"`
	Type    string        `json:"type" yaml:"type"`
	Enabled *bool         `json:"enabled" yaml:"enabled"`
	HTTP    *HTTPConfig   `json:"http" yaml:"http"`
	SQS     *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// IsEnabled defaults to true when enabled is omitted.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Configs is the ordered list of sinks from a publishers file.
type Configs []Config

// Enabled returns the sinks that are switched on.
func (cs Configs) Enabled() Configs {
	out := make(Configs, 0, len(cs))
	for _, c := range cs {
		if c.IsEnabled() {
			out = append(out, c)
		}
	}
	return out
}

// LoadConfigs reads a publishers file. Files ending in .json are decoded as
// JSON, anything else as YAML.
func LoadConfigs(path string) (Configs, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file struct {
		Publishers Configs `json:"publishers" yaml:"publishers"`
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &file)
	} else {
		err = yaml.Unmarshal(raw, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	if len(file.Publishers) == 0 {
		return nil, fmt.Errorf("publishers file %s declares no publishers", path)
	}

	seen := make(map[string]struct{}, len(file.Publishers))
	for i := range file.Publishers {
		c := &file.Publishers[i]
		c.ID = strings.TrimSpace(c.ID)
		c.Type = strings.ToLower(strings.TrimSpace(c.Type))
		switch {
		case c.ID == "":
			return nil, fmt.Errorf("publishers[%d]: id is required", i)
		case builders[c.Type] == nil:
			return nil, fmt.Errorf("publisher %q: unknown type %q", c.ID, c.Type)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return file.Publishers, nil
}
