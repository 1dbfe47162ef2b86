package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relayList = `[
	{"hostname": "se-got-wg-001", "country_code": "se", "city_code": "got", "type": "wireguard",
	 "active": true, "owned": true, "stboot": false, "provider": "31173", "network_port_speed": 10},
	{"hostname": "us-nyc-wg-001", "country_code": "us", "city_code": "nyc", "type": "wireguard",
	 "active": true, "owned": false, "stboot": false, "provider": "M247", "network_port_speed": 10}
]`

// isolate points the home and cache directories at a temp dir and returns
// a config path inside it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return filepath.Join(dir, "config.yaml")
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func relayServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(relayList))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeMullvad writes an executable that answers every command as a
// disconnected client.
func fakeMullvad(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mullvad")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho Disconnected\n"), 0755))
	return path
}

func runArgs(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"mullvad-rotate"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"missing value", []string{"--config"}},
		{"missing list value", []string{"--countries"}},
		{"bad selector value", []string{"--print", "planets"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			code, stdout, stderr := runArgs(tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, strings.ToLower(stderr), "usage")
			assert.Contains(t, stderr, "--countries")
		})
	}
}

func TestRun_InvalidCityPairs(t *testing.T) {
	isolate(t)
	code, _, stderr := runArgs("--cities", "se")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr, "Error: "), stderr)
}

func TestRun_Version(t *testing.T) {
	isolate(t)
	code, stdout, stderr := runArgs("--version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "mullvad-rotate "), stdout)
	assert.Empty(t, stderr)
}

func TestRun_PrintCountries(t *testing.T) {
	path := isolate(t)
	srv := relayServer(t)
	writeConfig(t, path, "catalog_url: "+srv.URL+"\n")

	code, stdout, stderr := runArgs("--config", path, "--print", "countries")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "Available countries:", lines[0])
	assert.ElementsMatch(t, []string{"se", "us"}, lines[1:])
}

func TestRun_BadConfig(t *testing.T) {
	path := isolate(t)
	writeConfig(t, path, "theme: dark\n")

	code, stdout, stderr := runArgs("--config", path, "--print", "countries")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.True(t, strings.HasPrefix(stderr, "Error: "), stderr)
}

func TestRun_EmptyCandidateSet(t *testing.T) {
	path := isolate(t)
	srv := relayServer(t)
	writeConfig(t, path, "catalog_url: "+srv.URL+"\nmullvad_binary: "+fakeMullvad(t)+"\n")

	code, stdout, stderr := runArgs("--config", path, "--countries", "zz")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: no available countries amongst the ones specified\n")
}

func TestSetupSignalHandler_CancelsOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := setupSignalHandler(ctx, cancel)
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled after SIGTERM")
	}
}

func TestSetupSignalHandler_StopReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := setupSignalHandler(ctx, cancel)

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}
	assert.Error(t, ctx.Err())
}
