// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	if got := cfg.RequestTimeout(); got != 60*time.Second {
		t.Fatalf("RequestTimeout = %s, want 60s", got)
	}
	if got := cfg.WorkerCount(); got != 5 {
		t.Fatalf("WorkerCount = %d, want 5", got)
	}
	if got := cfg.RetryBudget(); got != 3 {
		t.Fatalf("RetryBudget = %d, want 3", got)
	}
	if got := cfg.RetryDelay(); got != time.Second {
		t.Fatalf("RetryDelay = %s, want 1s", got)
	}
	if got := cfg.ReplyMaxTokens(); got != 2000 {
		t.Fatalf("ReplyMaxTokens = %d, want 2000", got)
	}
	if got := cfg.LogFilePath(); got != "hogbench.log" {
		t.Fatalf("LogFilePath = %q, want hogbench.log", got)
	}
}

func TestExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		TimeoutSeconds:    120,
		Concurrency:       10,
		RetryTimes:        5,
		RetryDelaySeconds: 2,
		MaxTokens:         512,
	}
	if got := cfg.RequestTimeout(); got != 120*time.Second {
		t.Fatalf("RequestTimeout = %s, want 120s", got)
	}
	if got := cfg.WorkerCount(); got != 10 {
		t.Fatalf("WorkerCount = %d, want 10", got)
	}
	if got := cfg.RetryBudget(); got != 5 {
		t.Fatalf("RetryBudget = %d, want 5", got)
	}
	if got := cfg.RetryDelay(); got != 2*time.Second {
		t.Fatalf("RetryDelay = %s, want 2s", got)
	}
	if got := cfg.ReplyMaxTokens(); got != 512 {
		t.Fatalf("ReplyMaxTokens = %d, want 512", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{APIKey: "k", ModelName: "m", Temperature: 0.7}},
		{name: "missing key", cfg: Config{ModelName: "m"}, wantErr: "api_key"},
		{name: "missing model", cfg: Config{APIKey: "k"}, wantErr: "model_name"},
		{name: "bad temperature", cfg: Config{APIKey: "k", ModelName: "m", Temperature: 3}, wantErr: "temperature"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate returned error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestShowConfigRedactsKey(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ShowConfig(&buf, Config{APIKey: "sk-verysecretkey1234", ModelName: "m"})
	out := buf.String()
	if strings.Contains(out, "verysecretkey") {
		t.Fatalf("ShowConfig leaked the api key: %s", out)
	}
	if !strings.Contains(out, "sk-v") {
		t.Fatalf("ShowConfig should keep a key prefix for identification: %s", out)
	}
}
