// Package trigger decides the instant a score card has been freshly
// placed in front of the capture device, from per-frame brightness and
// whiteness metrics supplied by the caller.
package trigger

import "log/slog"

type Decision int

const (
	None Decision = iota
	Fire
)

// Frame carries one sample of the camera feed plus the gating state the
// surrounding application is in.
type Frame struct {
	AvgBrightness float64 // mean luma, 0..255
	WhiteRatio    float64 // fraction of near-white pixels, 0..1

	Armed             bool
	Suspended         bool
	Recognizing       bool
	HasExistingResult bool
}

const logEveryNFrames = 10

// Params tunes presence detection and the stability requirement.
type Params struct {
	PresentWhiteRatio float64
	PresentBrightness float64

	// Loose tolerances so auto-exposure flicker does not restart the
	// stability count.
	StableBrightnessTol float64
	StableWhiteRatioTol float64

	StableFramesToFire int
}

func DefaultParams() Params {
	return Params{
		PresentWhiteRatio:   0.06,
		PresentBrightness:   55.0,
		StableBrightnessTol: 12.0,
		StableWhiteRatioTol: 0.03,
		StableFramesToFire:  2,
	}
}

// Trigger is a single-stream state machine; it must not be shared
// between concurrent frame sources.
type Trigger struct {
	params Params
	log    *slog.Logger

	frameCount   int
	stableFrames int
	lastBright   float64
	lastWhite    float64
	firedOnce    bool
}

func New(log *slog.Logger) *Trigger {
	return NewWithParams(DefaultParams(), log)
}

func NewWithParams(p Params, log *slog.Logger) *Trigger {
	if log == nil {
		log = slog.Default()
	}
	return &Trigger{params: p, log: log}
}

// OnFrame classifies one frame and returns Fire exactly once per freshly
// placed card. It never blocks and never errors.
func (t *Trigger) OnFrame(f Frame) Decision {
	t.frameCount++

	present := f.WhiteRatio >= t.params.PresentWhiteRatio && f.AvgBrightness >= t.params.PresentBrightness
	if !present {
		// No card in view: drop all progress so nothing can fire.
		t.stableFrames = 0
		t.firedOnce = false
		t.logFrame(f, present, false)
		return None
	}

	if t.stableFrames == 0 {
		t.stableFrames = 1
	} else if t.withinTolerance(f) {
		t.stableFrames++
	} else {
		t.stableFrames = 0
	}
	t.lastBright = f.AvgBrightness
	t.lastWhite = f.WhiteRatio

	fire := f.Armed &&
		!f.Suspended &&
		!f.Recognizing &&
		!f.HasExistingResult &&
		!t.firedOnce &&
		t.stableFrames >= t.params.StableFramesToFire

	if fire {
		t.firedOnce = true
		t.stableFrames = 0
	}
	t.logFrame(f, present, fire)
	if fire {
		return Fire
	}
	return None
}

// ResetForNextCard clears the one-shot flag and stability state so a
// card left in place can trigger again once the caller has consumed the
// previous result.
func (t *Trigger) ResetForNextCard() {
	t.firedOnce = false
	t.stableFrames = 0
}

func (t *Trigger) withinTolerance(f Frame) bool {
	db := f.AvgBrightness - t.lastBright
	if db < 0 {
		db = -db
	}
	dw := f.WhiteRatio - t.lastWhite
	if dw < 0 {
		dw = -dw
	}
	return db <= t.params.StableBrightnessTol && dw <= t.params.StableWhiteRatioTol
}

func (t *Trigger) logFrame(f Frame, present, fired bool) {
	if t.frameCount%logEveryNFrames != 0 && !fired {
		return
	}
	t.log.Debug("card frame",
		"avg", f.AvgBrightness,
		"white", f.WhiteRatio,
		"present", present,
		"stable", t.stableFrames,
		"fired", fired,
	)
}
