// internal/commands/monitor.go
package hogbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/hogbench/internal/appconfig"
	"github.com/mwiater/hogbench/internal/tester"
	"github.com/mwiater/hogbench/internal/tui"
)

// tuiMonitor adapts the live progress view to the pipeline's observer
// callback.
type tuiMonitor struct {
	inner *tui.Monitor
}

func newTUIMonitor(modelName string, cancel func()) *tuiMonitor {
	return &tuiMonitor{inner: tui.StartMonitor(modelName, 0, cancel)}
}

func (t *tuiMonitor) observe(done, total int, r tester.Result) {
	t.inner.Observe(done, total, r)
}

func (t *tuiMonitor) finish() {
	t.inner.Finish()
}

func appconfigShow(cmd *cobra.Command) {
	appconfig.ShowConfig(cmd.OutOrStdout(), *GetConfig())
}
