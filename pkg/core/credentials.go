package core

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Credentials identify a data source and how to log into it.
type Credentials struct {
	Driver   string            `mapstructure:"driver" koanf:"driver"`
	Hostname string            `mapstructure:"hostname" koanf:"hostname"`
	Port     int               `mapstructure:"port" koanf:"port"`
	Database string            `mapstructure:"database" koanf:"database"`
	Username string            `mapstructure:"username" koanf:"username"`
	Password string            `mapstructure:"password" koanf:"password"`
	Schema   string            `mapstructure:"schema" koanf:"schema"`
	Options  map[string]string `mapstructure:"options" koanf:"options"`
}

// CredentialsFromMap decodes a flat credential map as handed over by a host.
// Keys of the form "options.<name>" populate Options.
func CredentialsFromMap(m map[string]string) (Credentials, error) {
	in := make(map[string]any, len(m))
	opts := make(map[string]string)
	for k, v := range m {
		key := strings.ToLower(k)
		if name, ok := strings.CutPrefix(key, "options."); ok {
			opts[name] = v
			continue
		}
		in[key] = v
	}
	if len(opts) > 0 {
		in["options"] = opts
	}

	var creds Credentials
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &creds,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to create credential decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return Credentials{}, &InvalidInputError{Field: "credentials", Reason: err.Error()}
	}
	creds.Driver = strings.ToLower(creds.Driver)
	return creds, nil
}

// Fingerprint returns the identity of the data source without secrets.
func (c Credentials) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", c.Driver, c.Hostname, c.Port, c.Database, c.Schema)
}
