// internal/appconfig/show.go
package appconfig

import (
	"fmt"
	"io"
	"strings"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the current configuration summary. With debug set the
// full record is pretty-printed (api key redacted).
func ShowConfig(out io.Writer, cfg Config) {
	if cfg.ConfigPath == "" {
		fmt.Fprintln(out, "No config file loaded (environment and defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", cfg.ConfigPath)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Model:       %s\n", cfg.ModelName)
	fmt.Fprintf(out, "  Endpoint:    %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "  Temperature: %g\n", cfg.Temperature)
	fmt.Fprintf(out, "  Max Tokens:  %d\n", cfg.ReplyMaxTokens())
	fmt.Fprintf(out, "  Timeout:     %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Concurrency: %d\n", cfg.WorkerCount())
	fmt.Fprintf(out, "  Retries:     %d (base delay %s)\n", cfg.RetryBudget(), cfg.RetryDelay())
	fmt.Fprintf(out, "  API Key:     %s\n", redactKey(cfg.APIKey))

	if cfg.Debug {
		redacted := cfg
		redacted.APIKey = redactKey(cfg.APIKey)
		pp.Fprintln(out, redacted)
	}
}

func redactKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 4) + key[len(key)-4:]
}
