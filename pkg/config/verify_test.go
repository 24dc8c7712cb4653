package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Server:   ServerConfig{Listen: ":8080", Timeout: 30 * time.Second},
		Database: DatabaseConfig{DSN: "file:test.db"},
		Scrape:   ScrapeConfig{Feeds: []string{"https://www.linkedin.com/in/jane-doe"}},
	}
	cfg.SetDefaults()
	return cfg
}

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "missing listen", modify: func(cfg *Config) { cfg.Server.Listen = "" }, wantErr: true, errMsg: "server.listen is required"},
		{name: "missing posts file", modify: func(cfg *Config) { cfg.Storage.PostsFile = "" }, wantErr: true,
			errMsg: "storage.posts_file is required"},
		{name: "interval without feeds", modify: func(cfg *Config) {
			cfg.Scrape.Feeds = nil
			cfg.Scrape.Interval = time.Hour
		}, wantErr: true, errMsg: "scrape.feeds is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := VerifyAgainstEmbeddedSchema(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEmbeddedSchema_MatchesConfig(t *testing.T) {
	generated, err := GenerateSchema()
	require.NoError(t, err)
	data, err := json.Marshal(generated)
	require.NoError(t, err)

	sections := func(raw []byte) []string {
		var s struct {
			Defs map[string]struct {
				Properties map[string]json.RawMessage `json:"properties"`
			} `json:"$defs"`
		}
		require.NoError(t, json.Unmarshal(raw, &s))
		res := []string{}
		for name, def := range s.Defs {
			for prop := range def.Properties {
				res = append(res, name+"."+prop)
			}
		}
		return res
	}
	assert.ElementsMatch(t, sections(data), sections([]byte(embeddedSchema)),
		"embedded schema.json is stale, run go generate ./pkg/config")
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)

	data, err := schema.MarshalJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	schemaStr := string(data)
	assert.Contains(t, schemaStr, "Config")
	assert.Contains(t, schemaStr, "server")
	assert.Contains(t, schemaStr, "classifier")
	assert.Contains(t, schemaStr, "on_failure")
}
