// Package termgath prints the capture lifecycle to the terminal for
// operators running without a message broker.
package termgath

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/takamgr/resultreader/internal/scorecard"
)

type TerminalGatherer struct {
	StartedAt time.Time
}

func New() *TerminalGatherer { return &TerminalGatherer{StartedAt: time.Now()} }

// StartCard implements capture.CardGatherer.
func (t *TerminalGatherer) StartCard(cardUuid string, session scorecard.SessionTag) {
	color.Cyan("== Card %s (%s) ==", shortUuid(cardUuid), session)
}

// StartAttempt implements capture.CardGatherer.
func (t *TerminalGatherer) StartAttempt(cardUuid string, attempt int) {
	fmt.Printf("-> attempt %d\n", attempt)
}

// FinishAttempt implements capture.CardGatherer.
func (t *TerminalGatherer) FinishAttempt(cardUuid string, attempt int, entryNo *int, scores []scorecard.SectionScore) {
	entry := "?"
	if entryNo != nil {
		entry = fmt.Sprintf("%d", *entryNo)
	}
	fmt.Printf("<- attempt %d entry=%s scores=[%s]\n", attempt, entry, joinScores(scores))
}

// AcceptCard implements capture.CardGatherer.
func (t *TerminalGatherer) AcceptCard(cardUuid string, entryNo int, scores []scorecard.SectionScore) {
	color.Green("accepted entry %d: [%s]", entryNo, joinScores(scores))
}

// NoConsensus implements capture.CardGatherer.
func (t *TerminalGatherer) NoConsensus(cardUuid string) {
	color.Red("no consensus between attempts, enter the card manually")
}

// FinishCard implements capture.CardGatherer.
func (t *TerminalGatherer) FinishCard(cardUuid string, entryNo int, errIfAny error) {
	if errIfAny != nil {
		color.Red("card %s failed: %v", shortUuid(cardUuid), errIfAny)
		return
	}
	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	color.Green("== Card %s committed for entry %d (up %s) ==", shortUuid(cardUuid), entryNo, dur)
}

func joinScores(scores []scorecard.SectionScore) string {
	parts := make([]string, len(scores))
	for i, sc := range scores {
		parts[i] = sc.String()
	}
	return strings.Join(parts, " ")
}

func shortUuid(u string) string {
	if len(u) > 8 {
		return u[:8]
	}
	return u
}
