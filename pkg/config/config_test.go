package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("AGENTCORE_TEST_TOKEN", "shh")

	cfg, err := Parse([]byte(`
name: assistant
plugins: [core, scheduler]
character:
  settings:
    apiToken: ${AGENTCORE_TEST_TOKEN}
`))
	require.NoError(t, err)
	require.Equal(t, "assistant", cfg.Name)
	require.Equal(t, "shh", cfg.Character.Settings["apiToken"])
	require.Equal(t, 1536, cfg.EmbeddingDimension)
	require.Equal(t, TriggerSettingEnabled, cfg.Reasoning.PlanningTrigger)
}

func TestParse_PlanningTriggerIsConfigurable(t *testing.T) {
	cfg, err := Parse([]byte(`
name: assistant
reasoning:
  planning_trigger: intent_classified
`))
	require.NoError(t, err)
	require.Equal(t, TriggerIntentClassified, cfg.Reasoning.PlanningTrigger)
}

func TestParse_MissingNameFailsValidation(t *testing.T) {
	_, err := Parse([]byte(`plugins: [core]`))
	require.Error(t, err)
}

func TestSettings_Precedence(t *testing.T) {
	require.NoError(t, os.Setenv("AGENTCORE_ENV_ONLY", "from-env"))
	defer os.Unsetenv("AGENTCORE_ENV_ONLY")

	crypt, err := NewCrypter("test-salt")
	require.NoError(t, err)

	encrypted, err := crypt.Encrypt("super-secret")
	require.NoError(t, err)

	s := NewSettings(
		map[string]string{"apiKey": encrypted},
		map[string]string{"apiKey": "plain-from-settings", "theme": "dark"},
		crypt,
	)

	v, ok := s.Get("apiKey")
	require.True(t, ok)
	require.Equal(t, "super-secret", v, "secrets take precedence over settings and are decrypted")

	v, ok = s.Get("theme")
	require.True(t, ok)
	require.Equal(t, "dark", v)

	v, ok = s.Get("AGENTCORE_ENV_ONLY")
	require.True(t, ok)
	require.Equal(t, "from-env", v, "falls back to the process environment")

	_, ok = s.Get("missing")
	require.False(t, ok)
}
