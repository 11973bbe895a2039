// Package config implements the ambient configuration stack: a YAML
// config tree (gopkg.in/yaml.v3 + mitchellh/mapstructure), and the
// getSetting lookup's fixed precedence: character.secrets, then
// character.settings, then the process environment, with transparent
// decryption of encrypted secret values.
package config

import (
	"os"
)

// Settings is the per-agent lookup table getSetting reads from. Character
// is a loose term here, covering just the character's secrets/settings
// maps; the runtime constructs one Settings per agent from its loaded
// configuration.
type Settings struct {
	Secrets  map[string]string
	Settings map[string]string
	crypt    *Crypter
}

// NewSettings builds a Settings table. crypt may be nil, in which case
// secret values are never treated as encrypted.
func NewSettings(secrets, settings map[string]string, crypt *Crypter) *Settings {
	return &Settings{Secrets: secrets, Settings: settings, crypt: crypt}
}

// Get implements getSetting's fixed precedence: secrets, then settings,
// then the process environment. A secret value is transparently decrypted
// if it carries the encrypted-value marker.
func (s *Settings) Get(key string) (string, bool) {
	if s.Secrets != nil {
		if v, ok := s.Secrets[key]; ok {
			if s.crypt != nil && IsEncrypted(v) {
				plain, err := s.crypt.Decrypt(v)
				if err != nil {
					return "", false
				}
				return plain, true
			}
			return v, true
		}
	}
	if s.Settings != nil {
		if v, ok := s.Settings[key]; ok {
			return v, true
		}
	}
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	return "", false
}
