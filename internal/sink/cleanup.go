package sink

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scenecap/scenecap/internal/errors"
)

// enforceRetention deletes the oldest scene files once the export
// directory holds more than maxScenes of them. Scene filenames embed the
// capture timestamp, so lexical order is capture order. Files that do not
// look like scene artifacts are never touched.
func (d *Disk) enforceRetention() error {
	if d.maxScenes <= 0 {
		return nil
	}

	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		return errors.New(err).
			Component("sink").
			Category(errors.CategoryFileIO).
			Context("operation", "scan_export_dir").
			Context("path", d.basePath).
			Build()
	}

	var scenes []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "scene_") && strings.HasSuffix(name, ".wav") {
			scenes = append(scenes, name)
		}
	}

	if len(scenes) <= d.maxScenes {
		return nil
	}

	sort.Strings(scenes)
	excess := scenes[:len(scenes)-d.maxScenes]
	for _, name := range excess {
		path := filepath.Join(d.basePath, name)
		if err := os.Remove(path); err != nil {
			return errors.New(err).
				Component("sink").
				Category(errors.CategoryFileIO).
				Context("operation", "prune_scene_file").
				Context("path", path).
				Build()
		}
		d.logger.Debug("old scene pruned", "path", path)
	}

	return nil
}
