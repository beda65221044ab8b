package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takamgr/resultreader/internal/environment"
	"github.com/takamgr/resultreader/internal/scorecard"
)

func TestParseConfigFull(t *testing.T) {
	cfg, err := environment.ParseConfig([]byte(`
[competition]
format = "4x3"
type = "championship"
data_dir = "/var/lib/resultreader"
roster_file = "entries.csv"

[trigger]
present_white_ratio = 0.1
stable_frames_to_fire = 3

[resolver]
roi_half_size = 32

[store]
keep_sections_on_void = false
`))
	require.NoError(t, err)

	format, err := cfg.Format()
	require.NoError(t, err)
	assert.Equal(t, scorecard.Format4x3, format)

	tournament, err := cfg.Tournament()
	require.NoError(t, err)
	assert.Equal(t, scorecard.Championship, tournament)

	assert.Equal(t, "entries.csv", cfg.Competition.RosterFile)
	assert.False(t, cfg.KeepSectionsOnVoid())

	tp := cfg.TriggerParams()
	assert.Equal(t, 0.1, tp.PresentWhiteRatio)
	assert.Equal(t, 3, tp.StableFramesToFire)
	assert.Equal(t, 55.0, tp.PresentBrightness)

	rp := cfg.ResolverParams()
	assert.Equal(t, 32, rp.ROIHalfSize)
	assert.Equal(t, 300, rp.DarkSumThr)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := environment.ParseConfig([]byte(`
[competition]
format = "4x2"
type = "beginner"
data_dir = "data"
`))
	require.NoError(t, err)

	assert.Equal(t, "roster.csv", cfg.Competition.RosterFile)
	assert.True(t, cfg.KeepSectionsOnVoid())
	assert.Equal(t, 2, cfg.TriggerParams().StableFramesToFire)
	assert.Equal(t, 0.05, cfg.ResolverParams().PunchedDarkRate)
}

func TestParseConfigRejectsUnknownFormat(t *testing.T) {
	_, err := environment.ParseConfig([]byte(`
[competition]
format = "9x9"
type = "beginner"
data_dir = "data"
`))
	assert.Error(t, err)
}

func TestParseConfigRejectsMissingDataDir(t *testing.T) {
	_, err := environment.ParseConfig([]byte(`
[competition]
format = "4x2"
type = "beginner"
`))
	assert.Error(t, err)
}
