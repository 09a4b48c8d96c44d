package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	old := GitCommit
	t.Cleanup(func() { GitCommit = old })
	GitCommit = "abc1234"

	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, "abc1234", info.GitCommit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "1.2.0", GitCommit: "abc1234", BuildTime: "2026-03-14T09:26:53Z", GoVersion: "go1.24.12"}
	assert.Equal(t, "vmhealth 1.2.0 (commit abc1234, built 2026-03-14T09:26:53Z, go1.24.12)", info.String())
}
