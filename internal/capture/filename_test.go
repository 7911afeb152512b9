package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneFilename(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 20, 14, 30, 5, 0, time.Local)

	cases := []struct {
		name     string
		sequence int
		want     string
	}{
		{"first scene", 1, "scene_20250620_143005_sz001.wav"},
		{"two digits", 42, "scene_20250620_143005_sz042.wav"},
		{"three digits", 999, "scene_20250620_143005_sz999.wav"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, SceneFilename(start, tc.sequence))
		})
	}
}

func TestParseSceneFilenameRoundTrip(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 20, 14, 30, 5, 0, time.Local)
	name := SceneFilename(start, 7)

	gotStart, gotSeq, err := ParseSceneFilename(name)
	require.NoError(t, err)
	assert.True(t, start.Equal(gotStart))
	assert.Equal(t, 7, gotSeq)
}

func TestParseSceneFilenameRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, _, err := ParseSceneFilename("recording-2025.wav")
	assert.Error(t, err)
}
