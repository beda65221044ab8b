package api

import "time"

// MsgType is a message type for streaming capture progress
type MsgType string

// Streaming message type constants
const (
	StartCardMsg     MsgType = "card_start"
	StartAttemptMsg  MsgType = "attempt_start"
	FinishAttemptMsg MsgType = "attempt_finish"
	AcceptCardMsg    MsgType = "card_accept"
	NoConsensusMsg   MsgType = "card_no_consensus"
	FinishCardMsg    MsgType = "card_finish"
)

// Header is the common header for all streaming messages
type Header struct {
	CardUuid string  `json:"card_uuid"`
	MsgType  MsgType `json:"msg_type"`
}

// StartCard message sent when the presence trigger fires for a card
type StartCard struct {
	Header
	SessionTag  string `json:"session"`
	StartedTime string `json:"started_time"`
}

// StartAttempt message sent when one capture attempt begins
type StartAttempt struct {
	Header
	Attempt int `json:"attempt"`
}

// FinishAttempt message sent when one attempt's grid has been resolved
type FinishAttempt struct {
	Header
	Attempt int      `json:"attempt"`
	EntryNo *int     `json:"entry_no"`
	Scores  []string `json:"scores"`
}

// AcceptCard message sent when the attempts agreed on a section vector
type AcceptCard struct {
	Header
	EntryNo int      `json:"entry_no"`
	Scores  []string `json:"scores"`
}

// NoConsensus message sent when the attempts could not agree; the
// operator must fall back to manual entry
type NoConsensus struct {
	Header
}

// FinishCard message sent when the commit completed or failed
type FinishCard struct {
	Header
	EntryNo      int     `json:"entry_no"`
	ErrorMessage *string `json:"error_message"`
}

// NewHeader creates the common header
func NewHeader(cardUuid string, msgType MsgType) Header {
	return Header{
		CardUuid: cardUuid,
		MsgType:  msgType,
	}
}

func NewStartCard(cardUuid, session string) StartCard {
	return StartCard{
		Header:      NewHeader(cardUuid, StartCardMsg),
		SessionTag:  session,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewStartAttempt(cardUuid string, attempt int) StartAttempt {
	return StartAttempt{
		Header:  NewHeader(cardUuid, StartAttemptMsg),
		Attempt: attempt,
	}
}

func NewFinishAttempt(cardUuid string, attempt int, entryNo *int, scores []string) FinishAttempt {
	return FinishAttempt{
		Header:  NewHeader(cardUuid, FinishAttemptMsg),
		Attempt: attempt,
		EntryNo: entryNo,
		Scores:  scores,
	}
}

func NewAcceptCard(cardUuid string, entryNo int, scores []string) AcceptCard {
	return AcceptCard{
		Header:  NewHeader(cardUuid, AcceptCardMsg),
		EntryNo: entryNo,
		Scores:  scores,
	}
}

func NewNoConsensus(cardUuid string) NoConsensus {
	return NoConsensus{
		Header: NewHeader(cardUuid, NoConsensusMsg),
	}
}

func NewFinishCard(cardUuid string, entryNo int, errIfAny error) FinishCard {
	msg := FinishCard{
		Header:  NewHeader(cardUuid, FinishCardMsg),
		EntryNo: entryNo,
	}
	if errIfAny != nil {
		s := errIfAny.Error()
		msg.ErrorMessage = &s
	}
	return msg
}
