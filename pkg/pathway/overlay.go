package pathway

import (
	"path/filepath"

	"github.com/yumyai/degview/logger"
	"github.com/yumyai/degview/pkg/exprtable"
	"go.uber.org/zap"
)

// Overlay renders one diagram per pathway identifier and condition column,
// colored on the table-wide shared scale. A failure on one identifier is
// logged and the remaining identifiers still render; the returned count is
// the number of diagrams actually written.
func Overlay(tab *exprtable.Table, ids []string, conditions []string, r Renderer, outDir string) int {
	bound, bins := tab.ColorBound()
	scale := Scale{Bound: bound}
	logger.Info("Shared color scale",
		zap.Int("bound", bound), zap.Int("bins", bins))

	rendered := 0
	for _, id := range ids {
		ref, err := ParseID(id)
		if err != nil {
			logger.Error("Skipping unparseable pathway identifier",
				zap.String("id", id), zap.Error(err))
			continue
		}
		for _, cond := range conditions {
			col, err := tab.Column(cond)
			if err != nil {
				logger.Error("Skipping condition", zap.String("condition", cond), zap.Error(err))
				continue
			}
			out := filepath.Join(outDir, imageName(ref, cond))
			if err := r.Render(ref, scale.Colors(col), out); err != nil {
				logger.Error("Pathway render failed",
					zap.String("pathway", ref.String()),
					zap.String("condition", cond),
					zap.Error(err))
				continue
			}
			logger.Info("Rendered pathway", zap.String("file", out))
			rendered++
		}
	}
	return rendered
}
