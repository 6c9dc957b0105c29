/*package xlog configures the structured logger used by the photon pipeline
and the command-line tool.*/
package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger writing to stderr. With verbose set, debug
// records are kept.
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// Nop returns a logger that discards everything. Library code takes a
// *zap.Logger argument and substitutes Nop() when given nil, so callers that
// don't care about logs don't need to build one.
func Nop() *zap.Logger { return zap.NewNop() }
