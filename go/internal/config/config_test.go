package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 15, c.Draft.DefaultRounds)
	assert.Equal(t, 90, c.Draft.DefaultPickTimeSeconds)
	assert.True(t, c.Draft.Snake)
	assert.Equal(t, 3, c.Draft.ApplyMaxAttempts)
	assert.Equal(t, 5*time.Second, c.Orchestrator.IdlePoll)
	assert.Equal(t, SnapshotStorePostgres, c.SnapshotStore)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
draft:
  default_rounds: 10
  snake: false
orchestrator:
  idle_poll: 2s
nats:
  url: nats://localhost:4222
snapshot_store: kv
`), 0o644))
	t.Setenv("DRAFT_DEFAULT_PICK_TIME_SECONDS", "30")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Draft.DefaultRounds)
	assert.False(t, c.Draft.Snake)
	assert.Equal(t, 30, c.Draft.DefaultPickTimeSeconds)
	assert.Equal(t, 2*time.Second, c.Orchestrator.IdlePoll)
	assert.Equal(t, SnapshotStoreKV, c.SnapshotStore)
	assert.Equal(t, "DRAFT_STATES", c.NATS.KVBucket)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SNAPSHOT_STORE", "redis")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_KVNeedsNATS(t *testing.T) {
	t.Setenv("SNAPSHOT_STORE", "kv")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	t.Setenv("NATS_EMBEDDED", "true")
	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
}
