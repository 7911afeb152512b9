package capture

import (
	"fmt"
	"time"
)

// ParseSceneFilename recovers the capture start time and sequence number
// from a scene filename produced by SceneFilename.
func ParseSceneFilename(name string) (time.Time, int, error) {
	var date, clock string
	var sequence int
	if _, err := fmt.Sscanf(name, "scene_%8s_%6s_sz%3d.wav", &date, &clock, &sequence); err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed scene filename %q: %w", name, err)
	}
	start, err := time.ParseInLocation(sceneTimestampLayout, date+"_"+clock, time.Local)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed scene timestamp in %q: %w", name, err)
	}
	return start, sequence, nil
}

// sceneTimestampLayout is the wall-clock layout embedded in scene filenames.
const sceneTimestampLayout = "20060102_150405"

// SceneFilename derives the artifact filename for one scene segment from
// the segment's capture start instant and its sequence number, e.g.
// scene_20250620_143005_sz001.wav. The backend and gallery key on this
// exact shape.
func SceneFilename(start time.Time, sequence int) string {
	return fmt.Sprintf("scene_%s_sz%03d.wav", start.Format(sceneTimestampLayout), sequence)
}
