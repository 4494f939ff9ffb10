package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/config"
)

func serveTestConfig(t *testing.T) *config.Config {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	cfg := config.Load()
	cfg.Catalog.ManifestURL = filepath.Join(t.TempDir(), "missing.json")
	cfg.Web.Host = "127.0.0.1"
	cfg.Web.Port = port
	return cfg
}

func runServeAsync(ctx context.Context, cfg *config.Config) chan error {
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cfg, zap.NewNop())
	}()
	return done
}

func TestServe_CancelledDuringLoadNeverListens(t *testing.T) {
	cfg := serveTestConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	select {
	case err := <-runServeAsync(ctx, cfg):
		if err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected serve to return without starting the server")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Web.Port))
	if err != nil {
		t.Fatalf("expected the port to be free: %v", err)
	}
	listener.Close()
}

func TestServe_ShutsDownWhenContextEnds(t *testing.T) {
	cfg := serveTestConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runServeAsync(ctx, cfg)

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/api/v1/health", cfg.Web.Port)
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := client.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected status 200, got %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not come up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected serve to return after the context ended")
	}
}
