package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/ir"
)

func TestServeHandlesRequestsUntilCancelled(t *testing.T) {
	ready := make(chan string, 1)
	opts := &ServeOptions{
		RootOptions: &RootOptions{Format: "text"},
		SeedSource:  engine.NewFixedSeedSource(11),
		OnListen:    func(addr string) { ready <- addr },
	}
	cmd := newServeCommand(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := execute(cmd, templatesDir, "--addr", "127.0.0.1:0")
		done <- err
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	base := fmt.Sprintf("http://%s", addr)

	resp, err := http.Get(base + "/healthcheck")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(base+"/api/templates/weight-force/generate", "application/json", strings.NewReader(`{"seed": 42}`))
	require.NoError(t, err)
	var inst ir.ExerciseInstance
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&inst))
	resp.Body.Close()
	assert.Equal(t, int64(42), inst.Seed)
	assert.Equal(t, "19.6 N", inst.FinalAnswer)

	resp, err = http.Post(base+"/api/templates/mass-label/regenerate", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&inst))
	resp.Body.Close()
	assert.Equal(t, int64(11), inst.Seed)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeMissingTemplatesDir(t *testing.T) {
	out, err := execute(NewServeCommand(&RootOptions{Format: "text"}), "/nonexistent/templates", "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestServeBadAddress(t *testing.T) {
	out, err := execute(NewServeCommand(&RootOptions{Format: "text"}), templatesDir, "--addr", "not-an-address")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "failed to listen on not-an-address")
}
