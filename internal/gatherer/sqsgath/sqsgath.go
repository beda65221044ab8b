// Package sqsgath streams the capture lifecycle to an SQS queue for
// deployments where the scoreboard consumer lives behind AWS.
package sqsgath

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/takamgr/resultreader/api"
	"github.com/takamgr/resultreader/internal/scorecard"
)

type sqsCardGatherer struct {
	sqsClient *sqs.Client
	queueUrl  string
}

// New builds a gatherer publishing to the given queue. Credentials come
// from the default AWS chain.
func New(ctx context.Context, region, queueUrl string) (*sqsCardGatherer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &sqsCardGatherer{
		sqsClient: sqs.NewFromConfig(cfg),
		queueUrl:  queueUrl,
	}, nil
}

func (g *sqsCardGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal message: %v", err))
	}
	_, err = g.sqsClient.SendMessage(context.TODO(), &sqs.SendMessageInput{
		QueueUrl:    aws.String(g.queueUrl),
		MessageBody: aws.String(string(b)),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to send message: %v", err))
	}
}

// StartCard implements capture.CardGatherer.
func (g *sqsCardGatherer) StartCard(cardUuid string, session scorecard.SessionTag) {
	g.send(api.NewStartCard(cardUuid, string(session)))
}

// StartAttempt implements capture.CardGatherer.
func (g *sqsCardGatherer) StartAttempt(cardUuid string, attempt int) {
	g.send(api.NewStartAttempt(cardUuid, attempt))
}

// FinishAttempt implements capture.CardGatherer.
func (g *sqsCardGatherer) FinishAttempt(cardUuid string, attempt int, entryNo *int, scores []scorecard.SectionScore) {
	g.send(api.NewFinishAttempt(cardUuid, attempt, entryNo, scoreStrings(scores)))
}

// AcceptCard implements capture.CardGatherer.
func (g *sqsCardGatherer) AcceptCard(cardUuid string, entryNo int, scores []scorecard.SectionScore) {
	g.send(api.NewAcceptCard(cardUuid, entryNo, scoreStrings(scores)))
}

// NoConsensus implements capture.CardGatherer.
func (g *sqsCardGatherer) NoConsensus(cardUuid string) {
	g.send(api.NewNoConsensus(cardUuid))
}

// FinishCard implements capture.CardGatherer.
func (g *sqsCardGatherer) FinishCard(cardUuid string, entryNo int, errIfAny error) {
	g.send(api.NewFinishCard(cardUuid, entryNo, errIfAny))
}

func scoreStrings(scores []scorecard.SectionScore) []string {
	out := make([]string, len(scores))
	for i, sc := range scores {
		out[i] = sc.String()
	}
	return out
}
