package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/yumyai/degview/internal/util"
	"github.com/yumyai/degview/logger"
	"github.com/yumyai/degview/pkg/exprtable"
	"github.com/yumyai/degview/pkg/pathway"
	"go.uber.org/zap"
)

// PathwayConfig collects everything the overlay pipeline needs. Renderer is
// swappable so tests can run without the live diagram service.
type PathwayConfig struct {
	ExpressionFile string
	PathwayFile    string
	Conditions     []string // empty selects every condition column
	OutDir         string
	Renderer       pathway.Renderer
}

// RunPathway executes the overlay pipeline: load, dedup, render one diagram
// per pathway identifier and condition. Per-pathway failures are recoverable
// and do not abort the batch.
func RunPathway(cfg PathwayConfig) error {
	if err := util.EnsureDir(cfg.OutDir); err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}

	tab, err := exprtable.Load(cfg.ExpressionFile)
	if err != nil {
		return err
	}
	logger.Info("Loaded expression table",
		zap.Int("genes", len(tab.GeneIDs)),
		zap.Strings("conditions", tab.Conditions))

	if err := tab.WriteCSV(filepath.Join(cfg.OutDir, "expression_dedup.csv")); err != nil {
		return err
	}

	ids, err := pathway.LoadIDs(cfg.PathwayFile)
	if err != nil {
		return err
	}

	conditions := cfg.Conditions
	if len(conditions) == 0 {
		conditions = tab.Conditions
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = pathway.NewKEGGRenderer()
	}

	n := pathway.Overlay(tab, ids, conditions, renderer, cfg.OutDir)
	logger.Info("Pathway overlay finished",
		zap.Int("requested", len(ids)*len(conditions)),
		zap.Int("rendered", n))
	return nil
}
