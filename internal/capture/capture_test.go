package capture_test

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takamgr/resultreader/internal/capture"
	"github.com/takamgr/resultreader/internal/consolidate"
	"github.com/takamgr/resultreader/internal/resultstore"
	"github.com/takamgr/resultreader/internal/roster"
	"github.com/takamgr/resultreader/internal/scorecard"
	"github.com/takamgr/resultreader/internal/trigger"
)

const cellSize = 120

// cardImage renders a punch grid with one punched row per column.
func cardImage(rowPerCol []int) image.Image {
	cols := len(rowPerCol)
	img := image.NewRGBA(image.Rect(0, 0, cols*cellSize, 5*cellSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for col, row := range rowPerCol {
		cx := col*cellSize + cellSize/2
		cy := row*cellSize + cellSize/2
		punch := image.Rect(cx-25, cy-25, cx+25, cy+25)
		draw.Draw(img, punch, image.NewUniform(color.Black), image.Point{}, draw.Src)
	}
	return img
}

type fakeRecognizer struct {
	acqs []capture.Acquisition
	errs []error
	next int
}

func (f *fakeRecognizer) Acquire(ctx context.Context) (capture.Acquisition, error) {
	i := f.next
	f.next++
	if i < len(f.errs) && f.errs[i] != nil {
		return capture.Acquisition{}, f.errs[i]
	}
	return f.acqs[i], nil
}

type recordingGatherer struct {
	events []string
}

func (g *recordingGatherer) StartCard(string, scorecard.SessionTag) { g.events = append(g.events, "card_start") }
func (g *recordingGatherer) StartAttempt(_ string, n int) {
	g.events = append(g.events, "attempt_start")
}
func (g *recordingGatherer) FinishAttempt(_ string, n int, _ *int, _ []scorecard.SectionScore) {
	g.events = append(g.events, "attempt_finish")
}
func (g *recordingGatherer) AcceptCard(_ string, _ int, _ []scorecard.SectionScore) {
	g.events = append(g.events, "card_accept")
}
func (g *recordingGatherer) NoConsensus(string) { g.events = append(g.events, "no_consensus") }
func (g *recordingGatherer) FinishCard(_ string, _ int, _ error) {
	g.events = append(g.events, "card_finish")
}

func newTestStore(t *testing.T) *resultstore.Store {
	t.Helper()
	ros, err := roster.Parse(strings.NewReader("EntryNo,Name,Class\n7,Ito,Open\n"))
	require.NoError(t, err)
	return resultstore.New(resultstore.Config{
		Dir:                t.TempDir(),
		Format:             scorecard.Format4x2,
		Tournament:         scorecard.Beginner,
		KeepSectionsOnVoid: true,
		Clock:              func() time.Time { return time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC) },
	}, ros)
}

func entryPtr(n int) *int { return &n }

func TestProcessCardCommitsMajority(t *testing.T) {
	store := newTestStore(t)
	agreeing := cardImage([]int{0, 1, 0, 2, 0, 1, 0, 3})
	outlier := cardImage([]int{4, 1, 0, 2, 0, 1, 0, 3})

	rec := &fakeRecognizer{acqs: []capture.Acquisition{
		{EntryNo: entryPtr(7), Grid: agreeing},
		{EntryNo: nil, Grid: outlier},
		{EntryNo: entryPtr(7), Grid: agreeing},
	}}
	gath := &recordingGatherer{}
	runner := capture.NewRunner(rec, store, gath, scorecard.Format4x2, scorecard.Morning, nil)

	require.NoError(t, runner.ProcessCard(context.Background()))

	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].EntryNo)
	assert.Equal(t, 7, *rows[0].AmTotal)
	assert.Equal(t, 4, *rows[0].AmClean)
	assert.Equal(t, "OCR", rows[0].Input)

	assert.Equal(t, []string{
		"card_start",
		"attempt_start", "attempt_start", "attempt_start",
		"attempt_finish", "attempt_finish", "attempt_finish",
		"card_accept", "card_finish",
	}, gath.events)
}

func TestProcessCardNoConsensus(t *testing.T) {
	store := newTestStore(t)
	rec := &fakeRecognizer{acqs: []capture.Acquisition{
		{EntryNo: entryPtr(7), Grid: cardImage([]int{0, 0, 0, 0, 0, 0, 0, 0})},
		{EntryNo: entryPtr(7), Grid: cardImage([]int{1, 0, 0, 0, 0, 0, 0, 0})},
		{EntryNo: entryPtr(7), Grid: cardImage([]int{2, 0, 0, 0, 0, 0, 0, 0})},
	}}
	gath := &recordingGatherer{}
	runner := capture.NewRunner(rec, store, gath, scorecard.Format4x2, scorecard.Morning, nil)

	err := runner.ProcessCard(context.Background())
	assert.ErrorIs(t, err, consolidate.ErrNoConsensus)
	assert.Contains(t, gath.events, "no_consensus")

	rows, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestProcessCardNoEntryNumber(t *testing.T) {
	store := newTestStore(t)
	grid := cardImage([]int{0, 0, 0, 0, 0, 0, 0, 0})
	rec := &fakeRecognizer{acqs: []capture.Acquisition{
		{Grid: grid}, {Grid: grid}, {Grid: grid},
	}}
	runner := capture.NewRunner(rec, store, &recordingGatherer{}, scorecard.Format4x2, scorecard.Morning, nil)

	err := runner.ProcessCard(context.Background())
	assert.ErrorIs(t, err, capture.ErrNoEntryNumber)
}

func TestProcessCardUnknownEntrant(t *testing.T) {
	store := newTestStore(t)
	grid := cardImage([]int{0, 0, 0, 0, 0, 0, 0, 0})
	rec := &fakeRecognizer{acqs: []capture.Acquisition{
		{EntryNo: entryPtr(42), Grid: grid},
		{EntryNo: entryPtr(42), Grid: grid},
		{EntryNo: entryPtr(42), Grid: grid},
	}}
	runner := capture.NewRunner(rec, store, &recordingGatherer{}, scorecard.Format4x2, scorecard.Morning, nil)

	err := runner.ProcessCard(context.Background())
	assert.ErrorIs(t, err, resultstore.ErrUnknownEntrant)
}

func TestFailedAcquisitionsAreSkipped(t *testing.T) {
	store := newTestStore(t)
	grid := cardImage([]int{0, 1, 0, 2, 0, 1, 0, 3})
	rec := &fakeRecognizer{
		acqs: []capture.Acquisition{
			{},
			{EntryNo: entryPtr(7), Grid: grid},
			{EntryNo: entryPtr(7), Grid: grid},
		},
		errs: []error{context.DeadlineExceeded, nil, nil},
	}
	runner := capture.NewRunner(rec, store, &recordingGatherer{}, scorecard.Format4x2, scorecard.Morning, nil)

	require.NoError(t, runner.ProcessCard(context.Background()))
	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, *rows[0].AmTotal)
}

func TestOnFrameDrivesTrigger(t *testing.T) {
	store := newTestStore(t)
	grid := cardImage([]int{0, 0, 0, 0, 0, 0, 0, 0})
	rec := &fakeRecognizer{acqs: []capture.Acquisition{
		{EntryNo: entryPtr(7), Grid: grid},
		{EntryNo: entryPtr(7), Grid: grid},
		{EntryNo: entryPtr(7), Grid: grid},
	}}
	runner := capture.NewRunner(rec, store, &recordingGatherer{}, scorecard.Format4x2, scorecard.Morning, nil)

	frame := trigger.Frame{AvgBrightness: 120, WhiteRatio: 0.2, Armed: true}
	fired, err := runner.OnFrame(context.Background(), frame)
	require.NoError(t, err)
	assert.False(t, fired)

	fired, err = runner.OnFrame(context.Background(), frame)
	require.NoError(t, err)
	assert.True(t, fired)

	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
