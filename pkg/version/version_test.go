package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.Equal(t, BuildTime, info.BuildTime)
	assert.Contains(t, info.GoVersion, "go")
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Version:   "0.3.2",
		GitCommit: "f00dcafe",
		BuildTime: "2026-08-01T10:00:00Z",
		GoVersion: "go1.25.1",
	}

	assert.Equal(t,
		"Version: 0.3.2, GitCommit: f00dcafe, BuildTime: 2026-08-01T10:00:00Z, GoVersion: go1.25.1",
		info.String())
}

func TestInfo_JSON(t *testing.T) {
	info := Info{
		Version:   "0.3.2",
		GitCommit: "f00dcafe",
		BuildTime: "2026-08-01T10:00:00Z",
		GoVersion: "go1.25.1",
	}

	jsonString, err := info.JSON()
	require.NoError(t, err)

	var parsed Info
	require.NoError(t, json.Unmarshal([]byte(jsonString), &parsed))
	assert.Equal(t, info, parsed)

	assert.Contains(t, jsonString, `"version"`)
	assert.Contains(t, jsonString, `"gitCommit"`)
	assert.Contains(t, jsonString, `"buildTime"`)
	assert.Contains(t, jsonString, `"goVersion"`)
}
