package sink

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scenecap/scenecap/internal/errors"
)

// Disk writes segments as WAV files under a base directory, pruning the
// oldest scene files beyond the retention limit.
type Disk struct {
	basePath  string
	maxScenes int // 0 disables retention
	logger    *slog.Logger
}

// NewDisk returns a disk sink rooted at basePath. The directory is
// created on first delivery, not here, so construction never fails.
func NewDisk(basePath string, maxScenes int, logger *slog.Logger) *Disk {
	if logger == nil {
		logger = slog.Default()
	}
	return &Disk{
		basePath:  basePath,
		maxScenes: maxScenes,
		logger:    logger.With("sink", "disk"),
	}
}

func (d *Disk) Name() string { return "disk" }

// Deliver writes the segment to basePath/Filename.
func (d *Disk) Deliver(ctx context.Context, seg Segment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.basePath, 0o755); err != nil {
		return errors.New(err).
			Component("sink").
			Category(errors.CategoryFileIO).
			Context("operation", "create_export_dir").
			Context("path", d.basePath).
			Build()
	}

	outPath := filepath.Join(d.basePath, seg.Filename)
	if err := os.WriteFile(outPath, seg.Data, 0o644); err != nil {
		return errors.New(err).
			Component("sink").
			Category(errors.CategoryFileIO).
			Context("operation", "write_scene_file").
			Context("path", outPath).
			Build()
	}

	d.logger.Debug("scene written",
		"path", outPath,
		"bytes", len(seg.Data),
		"sequence", seg.Sequence)

	return d.enforceRetention()
}
