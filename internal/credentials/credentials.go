// Package credentials manages the locally persisted Lsky Pro server binding used by the CLI.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	yaml "gopkg.in/yaml.v2"

	"github.com/chenhe/lskyctl/internal/lsky"
)

// Credentials is a Lsky Pro server binding.
type Credentials struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	// Source is the origin of the credentials.
	Source string `yaml:"-"`
}

// Get returns the configured credentials.
//
// The lookup order is:
//  1. Environment variables (see FromEnv)
//  2. Credentials file (see FromFile)
func Get() Credentials {
	if c := FromEnv(); c.IsSet() {
		return c
	}

	return FromFile()
}

// FromEnv reads the credentials from the user environment.
func FromEnv() Credentials {
	return normalized(Credentials{
		URL:    os.Getenv("LSKY_URL"),
		Token:  os.Getenv("LSKY_TOKEN"),
		Source: "environment variables",
	})
}

// FromFile reads the credentials stored in the default file location.
func FromFile() Credentials {
	return fromFile(defaultFilepath())
}

// fromFile reads the credentials from path.
func fromFile(path string) Credentials {
	yamlFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// not a real error but a valid usecase when credentials have not been persisted yet
			return Credentials{}
		}

		log.Error().Msgf("failed to read credentials: %v", err)
		return Credentials{}
	}
	defer yamlFile.Close()

	var c Credentials
	if err = yaml.NewDecoder(yamlFile).Decode(&c); err != nil {
		log.Error().Msgf("failed to parse credentials: %v", err)
		return Credentials{}
	}
	c.Source = path

	return normalized(c)
}

// ToFile stores the provided credentials in the default file location.
func ToFile(c Credentials) error {
	return toFile(c, defaultFilepath())
}

// toFile stores the provided credentials into the file at path.
func toFile(c Credentials, path string) error {
	if os.MkdirAll(filepath.Dir(path), 0700) != nil {
		return fmt.Errorf("unable to create configuration folder")
	}

	b, err := yaml.Marshal(normalized(c))
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// IsSet reports whether a server URL is configured.
func (c Credentials) IsSet() bool {
	return c.URL != ""
}

func normalized(c Credentials) Credentials {
	c.URL = lsky.NormalizeURL(c.URL)
	c.Token = lsky.NormalizeToken(c.Token)
	return c
}

func defaultFilepath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".lskyctl", "credentials.yml")
}
