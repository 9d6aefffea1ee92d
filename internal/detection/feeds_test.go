package detection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/detection"
)

func TestFeeds_AppendKeepsPerUserWindow(t *testing.T) {
	f, err := detection.NewFeeds(0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got := f.Append("usr_1", []detection.Detection{box(float64(i)*150+200, 200)})
		assert.Equal(t, i+1, got.Samples)
	}
	got := f.Append("usr_2", []detection.Detection{box(200, 200)})
	assert.Equal(t, 1, got.Samples)

	var batch []detection.Detection
	for i := 3; i < 40; i++ {
		batch = append(batch, box(float64(i)*150+200, 200))
	}
	got = f.Append("usr_1", batch)
	assert.Equal(t, detection.MaxHistory, got.Samples)
	assert.True(t, got.IsStalking)
	assert.Equal(t, 2, f.Len())
}

func TestFeeds_Reset(t *testing.T) {
	f, err := detection.NewFeeds(0)
	require.NoError(t, err)

	f.Append("usr_1", []detection.Detection{box(1, 1), box(2, 2)})

	assert.Equal(t, 2, f.Reset("usr_1"))
	assert.Equal(t, 0, f.Reset("usr_1"))
	assert.Equal(t, 1, f.Append("usr_1", []detection.Detection{box(3, 3)}).Samples)
}

func TestFeeds_EvictsLeastRecentlyFed(t *testing.T) {
	f, err := detection.NewFeeds(2)
	require.NoError(t, err)

	f.Append("usr_1", []detection.Detection{box(1, 1)})
	f.Append("usr_2", []detection.Detection{box(1, 1)})
	f.Append("usr_1", []detection.Detection{box(2, 2)})
	f.Append("usr_3", []detection.Detection{box(1, 1)})

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 0, f.Reset("usr_2"))
	assert.Equal(t, 2, f.Reset("usr_1"))
}
