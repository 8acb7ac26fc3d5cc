package config

import (
	"fmt"

	"github.com/cognicore/logiclm/pkg/logiclm/retrieve"
)

// Loader loads the configuration file and the files it points to.
type Loader struct {
	ConfigPath string
	// Required makes a missing ConfigPath an error.
	Required bool
}

// Components holds the loaded configuration and what was built from it.
type Components struct {
	Config    Config
	Tokenizer *retrieve.Tokenizer
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	load := Load
	if l.Required {
		load = LoadRequired
	}
	cfg, err := load(l.ConfigPath)
	if err != nil {
		return nil, err
	}
	comp := &Components{Config: cfg}

	if cfg.Stoplist != "" {
		stoplist, err := LoadStoplist(cfg.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Tokenizer = retrieve.NewTokenizer(stoplist.Terms)
	} else {
		comp.Tokenizer = retrieve.NewTokenizer(nil)
	}

	return comp, nil
}
