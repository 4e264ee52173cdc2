package generate

import (
	"fmt"

	"go.uber.org/zap"

	"silk/config"
	"silk/snapshot"
)

// Merge combines snapshots in given order into destination snapshot. Atoms
// keep position of their first appearance, usage counts add up.
func Merge(cfg *config.Config, destination string, sources []string, log *zap.Logger) (int, error) {
	if len(sources) == 0 {
		return 0, fmt.Errorf("no snapshots to merge")
	}
	if _, _, err := snapshot.FormatOf(destination); err != nil {
		return 0, err
	}

	c, err := cfg.Engine.Prepare(log)
	if err != nil {
		return 0, fmt.Errorf("unable to prepare compiler: %w", err)
	}
	reg := c.NewRegistry()
	for _, src := range sources {
		entries, err := snapshot.Load(src)
		if err != nil {
			return 0, fmt.Errorf("unable to load snapshot: %w", err)
		}
		if err := reg.Import(entries); err != nil {
			return 0, fmt.Errorf("unable to merge %s: %w", src, err)
		}
		log.Debug("Snapshot merged", zap.String("from", src), zap.Int("atoms", len(entries)))
	}

	if err := snapshot.Save(destination, reg.Export()); err != nil {
		return 0, fmt.Errorf("unable to save snapshot: %w", err)
	}
	log.Info("Snapshots merged", zap.String("to", destination), zap.Int("sources", len(sources)), zap.Stringer("atoms", reg.Stats()))
	return reg.Len(), nil
}
