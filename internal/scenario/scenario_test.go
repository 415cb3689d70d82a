package scenario

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Replay(t *testing.T) {
	sc, err := LoadFile(filepath.Join("testdata", "feed.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "feed", sc.Name)
	require.Len(t, sc.Steps, 7)

	res, err := Replay(sc)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)

	feed, ok := res.Tracker.Find("feed")
	require.True(t, ok)
	// The backfill widened the root from [10, 50] to [5, 50].
	assert.Equal(t, 5*time.Millisecond, feed.StartedAt())
	assert.Equal(t, 45*time.Millisecond, feed.Delta())
	assert.Equal(t, 5*time.Millisecond, feed.Offset())

	counts, _ := feed.Find("counts")
	assert.Equal(t, 15*time.Millisecond, counts.Offset())
	assert.Equal(t, time.Duration(0), counts.Delta())

	list, ok := res.Tracker.Find("feed.api.list")
	require.True(t, ok)
	assert.Equal(t, domain.StateStopped, list.State())
	assert.Equal(t, 25*time.Millisecond, list.Delta())
}

func TestReplay_CollectsProtocolErrors(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - {at: 1, op: start, key: a}
  - {at: 2, op: start, key: a}
  - {at: 3, op: stop, key: a}
  - {at: 4, op: stop, key: a}
`))
	require.NoError(t, err)

	res, err := Replay(sc)
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)
	assert.ErrorIs(t, res.Errors[0], domain.ErrAlreadyStarted)
	assert.ErrorIs(t, res.Errors[1], domain.ErrAlreadyStopped)

	a, _ := res.Tracker.Find("a")
	assert.Equal(t, 2*time.Millisecond, a.Delta())
}

func TestReplay_UnknownSample(t *testing.T) {
	sc, err := Parse([]byte(`steps: [{at: 1, op: stop, key: ghost}]`))
	require.NoError(t, err)

	_, err = Replay(sc)
	assert.ErrorIs(t, err, ErrUnknownSample)
}

func TestReplay_InvalidBackfillBounds(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - {at: 1, op: start, key: a}
  - {at: 2, op: stop, key: a}
  - {at: 3, op: backfill, key: a, child: b, from: 9, to: 4}
`))
	require.NoError(t, err)

	_, err = Replay(sc)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"yaml":         "steps: [",
		"unknown op":   "steps: [{at: 1, op: pause, key: a}]",
		"missing key":  "steps: [{at: 1, op: start}]",
		"out of order": "steps: [{at: 5, op: start, key: a}, {at: 1, op: stop, key: a}]",
		"no children":  "steps: [{at: 1, op: waterfall, key: a}]",
		"no child":     "steps: [{at: 1, op: backfill, key: a}]",
		"unknown key":  "steps: [{at: 1, op: start, key: a, when: 3}]",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}
