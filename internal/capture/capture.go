// Package capture orchestrates one card's journey from the presence
// trigger to a committed result: N camera acquisitions, grid resolution,
// majority consolidation and the store commit, with progress streamed to
// a pluggable gatherer.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/takamgr/resultreader/internal/consolidate"
	"github.com/takamgr/resultreader/internal/resolver"
	"github.com/takamgr/resultreader/internal/resultstore"
	"github.com/takamgr/resultreader/internal/scorecard"
	"github.com/takamgr/resultreader/internal/trigger"
)

// DefaultAttempts is how many independent exposures a card gets; three
// cheap reads plus a vote beat one careful read.
const DefaultAttempts = 3

// ErrNoEntryNumber means none of the attempts produced a recognized
// entry number; the operator must key the card in manually.
var ErrNoEntryNumber = errors.New("entry number not recognized on any attempt")

// Acquisition is one physical exposure handed back by the external
// camera/OCR capability.
type Acquisition struct {
	// EntryNo is the recognized entry number, nil when recognition
	// failed on this exposure.
	EntryNo *int

	// Grid is the rectified punch-grid region of the card.
	Grid image.Image
}

// Recognizer is the capture/recognition capability this core consumes.
type Recognizer interface {
	Acquire(ctx context.Context) (Acquisition, error)
}

// CardGatherer receives the capture lifecycle of every card.
type CardGatherer interface {
	StartCard(cardUuid string, session scorecard.SessionTag)
	StartAttempt(cardUuid string, attempt int)
	FinishAttempt(cardUuid string, attempt int, entryNo *int, scores []scorecard.SectionScore)
	AcceptCard(cardUuid string, entryNo int, scores []scorecard.SectionScore)
	NoConsensus(cardUuid string)
	FinishCard(cardUuid string, entryNo int, errIfAny error)
}

// Runner drives cards through the pipeline for one session. It is not
// safe for concurrent use: the trigger state assumes a single frame
// stream, and the store assumes serialized commits.
type Runner struct {
	recognizer Recognizer
	store      *resultstore.Store
	gath       CardGatherer
	trig       *trigger.Trigger
	resParams  resolver.Params
	format     scorecard.Format
	session    scorecard.SessionTag
	attempts   int
	log        *slog.Logger
}

func NewRunner(
	recognizer Recognizer,
	store *resultstore.Store,
	gath CardGatherer,
	format scorecard.Format,
	session scorecard.SessionTag,
	log *slog.Logger,
) *Runner {
	return NewRunnerWithParams(recognizer, store, gath, format, session,
		trigger.DefaultParams(), resolver.DefaultParams(), log)
}

// NewRunnerWithParams is NewRunner with explicit trigger and resolver
// tuning, for deployments that override the defaults in config.
func NewRunnerWithParams(
	recognizer Recognizer,
	store *resultstore.Store,
	gath CardGatherer,
	format scorecard.Format,
	session scorecard.SessionTag,
	trigParams trigger.Params,
	resParams resolver.Params,
	log *slog.Logger,
) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		recognizer: recognizer,
		store:      store,
		gath:       gath,
		trig:       trigger.NewWithParams(trigParams, log),
		resParams:  resParams,
		format:     format,
		session:    session,
		attempts:   DefaultAttempts,
		log:        log,
	}
}

// OnFrame feeds one camera frame to the presence trigger and processes
// a card when the trigger fires. The returned bool reports whether a
// card was processed.
func (r *Runner) OnFrame(ctx context.Context, f trigger.Frame) (bool, error) {
	if r.trig.OnFrame(f) != trigger.Fire {
		return false, nil
	}
	return true, r.ProcessCard(ctx)
}

// ResetForNextCard re-arms the trigger once the operator has consumed
// the previous result.
func (r *Runner) ResetForNextCard() {
	r.trig.ResetForNextCard()
}

// ProcessCard runs the full pipeline for one physical card. Recoverable
// conditions (no consensus, unrecognized or unknown entry number,
// sections needing review) come back as typed errors the caller branches
// on to drive the manual-correction path.
func (r *Runner) ProcessCard(ctx context.Context) error {
	cardUuid := uuid.New().String()
	r.gath.StartCard(cardUuid, r.session)

	// Exposures are physical and run in order; resolution is pure and
	// runs in parallel.
	type attempt struct {
		n   int
		acq Acquisition
	}
	attempts := make([]attempt, 0, r.attempts)
	for i := 0; i < r.attempts; i++ {
		r.gath.StartAttempt(cardUuid, i+1)
		acq, err := r.recognizer.Acquire(ctx)
		if err != nil {
			r.log.Warn("acquisition failed", "card", cardUuid, "attempt", i+1, "err", err)
			r.gath.FinishAttempt(cardUuid, i+1, nil, nil)
			continue
		}
		attempts = append(attempts, attempt{n: i + 1, acq: acq})
	}

	cols := r.format.SectionsPerSession()
	votes := make([][]scorecard.SectionScore, len(attempts))
	eg, _ := errgroup.WithContext(ctx)
	for i, a := range attempts {
		eg.Go(func() error {
			if a.acq.Grid == nil {
				return nil
			}
			votes[i] = resolver.ResolveWith(r.resParams, a.acq.Grid, cols)
			return nil
		})
	}
	_ = eg.Wait()

	acqs := make([]Acquisition, len(attempts))
	for i, a := range attempts {
		acqs[i] = a.acq
		r.gath.FinishAttempt(cardUuid, a.n, a.acq.EntryNo, votes[i])
	}

	accepted, err := consolidate.Consolidate(votes)
	if err != nil {
		r.gath.NoConsensus(cardUuid)
		return fmt.Errorf("card %s: %w", cardUuid, err)
	}

	entryNo, ok := recognizedEntryNo(acqs)
	if !ok {
		r.gath.FinishCard(cardUuid, 0, ErrNoEntryNumber)
		return fmt.Errorf("card %s: %w", cardUuid, ErrNoEntryNumber)
	}

	r.gath.AcceptCard(cardUuid, entryNo, accepted)

	err = r.store.Commit(resultstore.Commit{
		EntryNo: entryNo,
		Session: r.session,
		Scores:  accepted,
	})
	r.gath.FinishCard(cardUuid, entryNo, err)
	return err
}

// recognizedEntryNo takes the first attempt whose recognition succeeded;
// exposures of one physical card cannot disagree on the printed number,
// only fail to read it.
func recognizedEntryNo(acqs []Acquisition) (int, bool) {
	for _, a := range acqs {
		if a.EntryNo != nil {
			return *a.EntryNo, true
		}
	}
	return 0, false
}
