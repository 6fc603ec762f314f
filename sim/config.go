// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"bufio"
	"os"
	"reflect"
	"time"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
)

// Duration is a time.Duration that reads from strings like "1.5s" in
// configuration files.
//
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrap(err, "invalid duration")
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
//
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config configures the simulator backend.
//
type Config struct {
	// Simulator REPL command and arguments, run in Dir.
	Command string
	Args    []string
	Dir     string
	// Prompt is the prefix of the line echoed by the REPL after every command.
	Prompt string
	// Banner is a substring of the line printed by the REPL once it is ready.
	Banner string
	// Remote is the address of a simulator server. If set, Start connects to
	// it instead of running Command.
	Remote string

	// ReadTimeout bounds every response line read. Zero means no timeout.
	ReadTimeout Duration
	// StartupTimeout bounds the wait for Banner. Zero means no timeout.
	StartupTimeout Duration
	// QuitTimeout is the delay given to the REPL to exit before it is killed.
	QuitTimeout Duration
}

// DefaultConfig returns the configuration for a local treadle REPL.
//
func DefaultConfig() Config {
	return Config{
		Command:        "./treadle.sh",
		Prompt:         "treadle>>",
		Banner:         "Running treadle.TreadleRepl",
		StartupTimeout: Duration{30 * time.Second},
		QuitTimeout:    Duration{time.Second},
	}
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return errors.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// LoadConfig reads a TOML configuration file. Keys missing from the file keep
// their DefaultConfig value.
//
func LoadConfig(file string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(file)
	if err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
