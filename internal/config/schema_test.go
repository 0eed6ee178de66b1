package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otsproof.json")
	contents := `{
		"version": 1,
		"calendar": {"urls": ["https://calendar.example"], "strategy": "quorum", "min_successful": 2},
		"bitcoin": {"rpc_endpoint": "http://localhost:8332", "timeout_sec": 20}
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "quorum", cfg.Calendar.Strategy)
	assert.Equal(t, "http://localhost:8332", cfg.Bitcoin.RPCEndpoint)
}

func TestLoadJSONRejectsBadStrategyEnum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otsproof.json")
	contents := `{"calendar": {"strategy": "quorm"}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestLoadJSONRejectsWrongType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otsproof.json")
	contents := `{"calendar": {"urls": "not-an-array"}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestLoadJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otsproof.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not valid json`), 0600))

	_, err := Load(path)
	require.Error(t, err)
}
