// Package natsgath streams the capture lifecycle to a NATS subject so a
// scoreboard UI elsewhere on the venue network can follow along live.
package natsgath

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/takamgr/resultreader/api"
	"github.com/takamgr/resultreader/internal/scorecard"
)

type natsCardGatherer struct {
	nc      *nats.Conn
	subject string
}

// New connects to the NATS server at url and publishes every card
// message to the given subject.
func New(url, subject string) (*natsCardGatherer, error) {
	nc, err := nats.Connect(url, nats.Name("resultreader"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &natsCardGatherer{nc: nc, subject: subject}, nil
}

func (g *natsCardGatherer) Close() {
	g.nc.Drain()
}

func (g *natsCardGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal message: %v", err))
	}
	if err := g.nc.Publish(g.subject, b); err != nil {
		panic(fmt.Sprintf("failed to publish message: %v", err))
	}
}

// StartCard implements capture.CardGatherer.
func (g *natsCardGatherer) StartCard(cardUuid string, session scorecard.SessionTag) {
	g.send(api.NewStartCard(cardUuid, string(session)))
}

// StartAttempt implements capture.CardGatherer.
func (g *natsCardGatherer) StartAttempt(cardUuid string, attempt int) {
	g.send(api.NewStartAttempt(cardUuid, attempt))
}

// FinishAttempt implements capture.CardGatherer.
func (g *natsCardGatherer) FinishAttempt(cardUuid string, attempt int, entryNo *int, scores []scorecard.SectionScore) {
	g.send(api.NewFinishAttempt(cardUuid, attempt, entryNo, scoreStrings(scores)))
}

// AcceptCard implements capture.CardGatherer.
func (g *natsCardGatherer) AcceptCard(cardUuid string, entryNo int, scores []scorecard.SectionScore) {
	g.send(api.NewAcceptCard(cardUuid, entryNo, scoreStrings(scores)))
}

// NoConsensus implements capture.CardGatherer.
func (g *natsCardGatherer) NoConsensus(cardUuid string) {
	g.send(api.NewNoConsensus(cardUuid))
}

// FinishCard implements capture.CardGatherer.
func (g *natsCardGatherer) FinishCard(cardUuid string, entryNo int, errIfAny error) {
	g.send(api.NewFinishCard(cardUuid, entryNo, errIfAny))
}

func scoreStrings(scores []scorecard.SectionScore) []string {
	out := make([]string, len(scores))
	for i, sc := range scores {
		out[i] = sc.String()
	}
	return out
}
