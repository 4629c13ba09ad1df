// Project config.json holds the HTTP headers that identify the bot to the
// wiki. A missing or malformed file is a startup error, not something to
// limp along without.
package config

import (
	"os"

	"ormosbot/oops"

	"github.com/goccy/go-json"
)

type Config struct {
	Headers map[string]string
}

func Load(path string) (*Config, error) {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "missing config file: %s", path)
	}

	var raw struct {
		Headers map[string]json.RawMessage `json:"headers"`
	}
	if err := json.Unmarshal(configBytes, &raw); err != nil {
		return nil, oops.Wrapf(err, "couldn't parse config file: %s", path)
	}
	if raw.Headers == nil {
		return nil, oops.Newf("%s must define a \"headers\" object", path)
	}

	headers := make(map[string]string)
	for key, rawValue := range raw.Headers {
		var value string
		if err := json.Unmarshal(rawValue, &value); err != nil {
			return nil, oops.Newf("%s header %q must be a string", path, key)
		}
		headers[key] = value
	}

	return &Config{Headers: headers}, nil
}
