// Package stream orders the event stream of an in-flight call. The
// Sequencer is pure event bookkeeping: it assigns sequence numbers and
// item/content indices and enforces the stream lifecycle, while the
// caller owns transport and delivery.
package stream

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Davincible/llmwire/internal/wire/responses"
)

// ProtocolViolation reports an internal ordering bug, such as emitting
// events after the terminal event. It is fatal for the call and never a
// user-facing condition.
type ProtocolViolation struct {
	Op  string
	Msg string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("stream protocol violation in %s: %s", e.Op, e.Msg)
}

func violation(op, format string, args ...any) error {
	return &ProtocolViolation{Op: op, Msg: fmt.Sprintf(format, args...)}
}

type state int

const (
	stateIdle state = iota
	stateInProgress
	stateTerminal
)

type itemKind int

const (
	itemMessage itemKind = iota
	itemFunctionCall
)

// openItem tracks one output item between its added and done events.
type openItem struct {
	kind        itemKind
	id          string
	outputIndex int

	// message items accumulate text per content part
	contentIndex int
	text         string

	// function_call items accumulate arguments
	callID string
	name   string
	args   string
}

// Sequencer drives the ordered event stream for a single call. It is
// single-writer: one producer of raw increments per instance, never
// shared across calls.
type Sequencer struct {
	id      string
	model   string
	created int64

	seq       int
	state     state
	nextIndex int
	active    *openItem
	done      []responses.OutputItem
}

// NewSequencer builds a sequencer for one call. The response id is
// synthesized when empty.
func NewSequencer(id, model string, created int64) *Sequencer {
	if id == "" {
		id = "resp_" + uuid.NewString()
	}

	return &Sequencer{id: id, model: model, created: created}
}

// ResponseID returns the envelope id used across all events.
func (s *Sequencer) ResponseID() string { return s.id }

func (s *Sequencer) nextSeq() int {
	n := s.seq
	s.seq++

	return n
}

func (s *Sequencer) snapshot(status string) *responses.Response {
	out := make([]responses.OutputItem, len(s.done))
	copy(out, s.done)

	return &responses.Response{
		ID:        s.id,
		Object:    "response",
		CreatedAt: s.created,
		Status:    status,
		Model:     s.model,
		Output:    out,
	}
}

// Start opens the stream with the created and in_progress events.
func (s *Sequencer) Start() ([]responses.Event, error) {
	if s.state != stateIdle {
		return nil, violation("start", "stream already started")
	}

	s.state = stateInProgress

	return []responses.Event{
		responses.NewCreatedEvent(s.nextSeq(), s.snapshot(responses.StatusInProgress)),
		responses.NewInProgressEvent(s.nextSeq(), s.snapshot(responses.StatusInProgress)),
	}, nil
}

// BeginMessage opens a text output item: output_item.added followed by
// content_part.added for its first text part.
func (s *Sequencer) BeginMessage() ([]responses.Event, error) {
	if err := s.checkOpen("begin message"); err != nil {
		return nil, err
	}

	item := &openItem{
		kind:        itemMessage,
		id:          "msg_" + uuid.NewString(),
		outputIndex: s.nextIndex,
	}
	s.nextIndex++
	s.active = item

	return []responses.Event{
		responses.ItemAddedEvent{
			Type:           responses.EventItemAdded,
			SequenceNumber: s.nextSeq(),
			OutputIndex:    item.outputIndex,
			Item: responses.OutputItem{
				Type:   responses.ItemTypeMessage,
				ID:     item.id,
				Status: responses.StatusInProgress,
				Role:   "assistant",
			},
		},
		responses.PartAddedEvent{
			Type:           responses.EventPartAdded,
			SequenceNumber: s.nextSeq(),
			ItemID:         item.id,
			OutputIndex:    item.outputIndex,
			ContentIndex:   item.contentIndex,
			Part:           responses.ContentPart{Type: responses.ContentTypeOutputText},
		},
	}, nil
}

// TextDelta emits one text fragment for the active message item.
func (s *Sequencer) TextDelta(delta string) (responses.Event, error) {
	if err := s.checkActive("text delta", itemMessage); err != nil {
		return nil, err
	}

	s.active.text += delta

	return responses.TextDeltaEvent{
		Type:           responses.EventTextDelta,
		SequenceNumber: s.nextSeq(),
		ItemID:         s.active.id,
		OutputIndex:    s.active.outputIndex,
		ContentIndex:   s.active.contentIndex,
		Delta:          delta,
	}, nil
}

// BeginFunctionCall opens a function-call output item.
func (s *Sequencer) BeginFunctionCall(callID, name string) ([]responses.Event, error) {
	if err := s.checkOpen("begin function call"); err != nil {
		return nil, err
	}

	if callID == "" {
		callID = "call_" + uuid.NewString()
	}

	item := &openItem{
		kind:        itemFunctionCall,
		id:          "fc_" + uuid.NewString(),
		outputIndex: s.nextIndex,
		callID:      callID,
		name:        name,
	}
	s.nextIndex++
	s.active = item

	return []responses.Event{
		responses.ItemAddedEvent{
			Type:           responses.EventItemAdded,
			SequenceNumber: s.nextSeq(),
			OutputIndex:    item.outputIndex,
			Item: responses.OutputItem{
				Type:   responses.ItemTypeFunctionCall,
				ID:     item.id,
				Status: responses.StatusInProgress,
				CallID: item.callID,
				Name:   item.name,
			},
		},
	}, nil
}

// ArgumentsDelta emits one argument fragment for the active
// function-call item.
func (s *Sequencer) ArgumentsDelta(delta string) (responses.Event, error) {
	if err := s.checkActive("arguments delta", itemFunctionCall); err != nil {
		return nil, err
	}

	s.active.args += delta

	return responses.ArgsDeltaEvent{
		Type:           responses.EventArgsDelta,
		SequenceNumber: s.nextSeq(),
		ItemID:         s.active.id,
		OutputIndex:    s.active.outputIndex,
		Delta:          delta,
	}, nil
}

// EndItem closes the active item: the content done event followed by
// output_item.done.
func (s *Sequencer) EndItem() ([]responses.Event, error) {
	if s.state != stateInProgress {
		return nil, violation("end item", "stream not in progress")
	}

	if s.active == nil {
		return nil, violation("end item", "no active item")
	}

	return s.closeActive(), nil
}

func (s *Sequencer) closeActive() []responses.Event {
	item := s.active
	s.active = nil

	var events []responses.Event
	var final responses.OutputItem

	switch item.kind {
	case itemMessage:
		events = append(events, responses.TextDoneEvent{
			Type:           responses.EventTextDone,
			SequenceNumber: s.nextSeq(),
			ItemID:         item.id,
			OutputIndex:    item.outputIndex,
			ContentIndex:   item.contentIndex,
			Text:           item.text,
		})

		final = responses.OutputItem{
			Type:   responses.ItemTypeMessage,
			ID:     item.id,
			Status: responses.StatusCompleted,
			Role:   "assistant",
			Content: []responses.ContentPart{{
				Type: responses.ContentTypeOutputText,
				Text: item.text,
			}},
		}

	case itemFunctionCall:
		events = append(events, responses.ArgsDoneEvent{
			Type:           responses.EventArgsDone,
			SequenceNumber: s.nextSeq(),
			ItemID:         item.id,
			OutputIndex:    item.outputIndex,
			Arguments:      item.args,
		})

		final = responses.OutputItem{
			Type:      responses.ItemTypeFunctionCall,
			ID:        item.id,
			Status:    responses.StatusCompleted,
			CallID:    item.callID,
			Name:      item.name,
			Arguments: item.args,
		}
	}

	s.done = append(s.done, final)

	events = append(events, responses.ItemDoneEvent{
		Type:           responses.EventItemDone,
		SequenceNumber: s.nextSeq(),
		OutputIndex:    item.outputIndex,
		Item:           final,
	})

	return events
}

// Complete closes the stream with the terminal completed event. Any
// active item is closed first.
func (s *Sequencer) Complete(usage *responses.Usage) ([]responses.Event, error) {
	if s.state != stateInProgress {
		return nil, violation("complete", "stream not in progress")
	}

	var events []responses.Event
	if s.active != nil {
		events = s.closeActive()
	}

	s.state = stateTerminal

	resp := s.snapshot(responses.StatusCompleted)
	resp.Usage = usage

	return append(events, responses.NewCompletedEvent(s.nextSeq(), resp)), nil
}

// Fail closes the stream with the terminal failed event. The active
// item, if any, is closed with its done events first so consumers never
// observe an item stuck mid-delivery.
func (s *Sequencer) Fail(code, message string) ([]responses.Event, error) {
	if s.state == stateTerminal {
		return nil, violation("fail", "stream already terminal")
	}

	var events []responses.Event
	if s.active != nil {
		events = s.closeActive()
	}

	s.state = stateTerminal

	resp := s.snapshot(responses.StatusFailed)
	resp.Error = &responses.ErrorDetail{Code: code, Message: message}

	return append(events, responses.NewFailedEvent(s.nextSeq(), resp)), nil
}

func (s *Sequencer) checkOpen(op string) error {
	if s.state != stateInProgress {
		return violation(op, "stream not in progress")
	}

	if s.active != nil {
		return violation(op, "item %s still active", s.active.id)
	}

	return nil
}

func (s *Sequencer) checkActive(op string, kind itemKind) error {
	if s.state != stateInProgress {
		return violation(op, "stream not in progress")
	}

	if s.active == nil {
		return violation(op, "no active item")
	}

	if s.active.kind != kind {
		return violation(op, "active item %s has wrong kind", s.active.id)
	}

	return nil
}
