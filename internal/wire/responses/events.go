package responses

// Streaming event type tags. The order here mirrors the lifecycle:
// envelope open, per-item add/content/done, envelope terminal.
const (
	EventCreated    = "response.created"
	EventInProgress = "response.in_progress"
	EventItemAdded  = "response.output_item.added"
	EventPartAdded  = "response.content_part.added"
	EventTextDelta  = "response.output_text.delta"
	EventTextDone   = "response.output_text.done"
	EventArgsDelta  = "response.function_call_arguments.delta"
	EventArgsDone   = "response.function_call_arguments.done"
	EventItemDone   = "response.output_item.done"
	EventCompleted  = "response.completed"
	EventFailed     = "response.failed"
)

// Event is one streaming event payload. Implementations are plain
// structs; transport framing around them is the caller's concern.
type Event interface {
	EventType() string
	Seq() int
}

// envelopeEvent carries a full response snapshot; used by created,
// in_progress and the terminal events.
type envelopeEvent struct {
	Type           string    `json:"type"`
	SequenceNumber int       `json:"sequence_number"`
	Response       *Response `json:"response"`
}

func (e envelopeEvent) EventType() string { return e.Type }
func (e envelopeEvent) Seq() int          { return e.SequenceNumber }

type CreatedEvent struct{ envelopeEvent }

type InProgressEvent struct{ envelopeEvent }

type CompletedEvent struct{ envelopeEvent }

type FailedEvent struct{ envelopeEvent }

func NewCreatedEvent(seq int, resp *Response) CreatedEvent {
	return CreatedEvent{envelopeEvent{Type: EventCreated, SequenceNumber: seq, Response: resp}}
}

func NewInProgressEvent(seq int, resp *Response) InProgressEvent {
	return InProgressEvent{envelopeEvent{Type: EventInProgress, SequenceNumber: seq, Response: resp}}
}

func NewCompletedEvent(seq int, resp *Response) CompletedEvent {
	return CompletedEvent{envelopeEvent{Type: EventCompleted, SequenceNumber: seq, Response: resp}}
}

func NewFailedEvent(seq int, resp *Response) FailedEvent {
	return FailedEvent{envelopeEvent{Type: EventFailed, SequenceNumber: seq, Response: resp}}
}

// ItemAddedEvent announces a new output item at a fixed output index.
type ItemAddedEvent struct {
	Type           string     `json:"type"`
	SequenceNumber int        `json:"sequence_number"`
	OutputIndex    int        `json:"output_index"`
	Item           OutputItem `json:"item"`
}

func (e ItemAddedEvent) EventType() string { return e.Type }
func (e ItemAddedEvent) Seq() int          { return e.SequenceNumber }

// ItemDoneEvent closes an output item; the item carries its final
// content and completed status.
type ItemDoneEvent struct {
	Type           string     `json:"type"`
	SequenceNumber int        `json:"sequence_number"`
	OutputIndex    int        `json:"output_index"`
	Item           OutputItem `json:"item"`
}

func (e ItemDoneEvent) EventType() string { return e.Type }
func (e ItemDoneEvent) Seq() int          { return e.SequenceNumber }

// PartAddedEvent opens a content part inside a message item.
type PartAddedEvent struct {
	Type           string      `json:"type"`
	SequenceNumber int         `json:"sequence_number"`
	ItemID         string      `json:"item_id"`
	OutputIndex    int         `json:"output_index"`
	ContentIndex   int         `json:"content_index"`
	Part           ContentPart `json:"part"`
}

func (e PartAddedEvent) EventType() string { return e.Type }
func (e PartAddedEvent) Seq() int          { return e.SequenceNumber }

// TextDeltaEvent carries one incremental text fragment.
type TextDeltaEvent struct {
	Type           string `json:"type"`
	SequenceNumber int    `json:"sequence_number"`
	ItemID         string `json:"item_id"`
	OutputIndex    int    `json:"output_index"`
	ContentIndex   int    `json:"content_index"`
	Delta          string `json:"delta"`
}

func (e TextDeltaEvent) EventType() string { return e.Type }
func (e TextDeltaEvent) Seq() int          { return e.SequenceNumber }

// TextDoneEvent closes a text content part with the accumulated text.
type TextDoneEvent struct {
	Type           string `json:"type"`
	SequenceNumber int    `json:"sequence_number"`
	ItemID         string `json:"item_id"`
	OutputIndex    int    `json:"output_index"`
	ContentIndex   int    `json:"content_index"`
	Text           string `json:"text"`
}

func (e TextDoneEvent) EventType() string { return e.Type }
func (e TextDoneEvent) Seq() int          { return e.SequenceNumber }

// ArgsDeltaEvent carries one incremental function-argument fragment.
type ArgsDeltaEvent struct {
	Type           string `json:"type"`
	SequenceNumber int    `json:"sequence_number"`
	ItemID         string `json:"item_id"`
	OutputIndex    int    `json:"output_index"`
	Delta          string `json:"delta"`
}

func (e ArgsDeltaEvent) EventType() string { return e.Type }
func (e ArgsDeltaEvent) Seq() int          { return e.SequenceNumber }

// ArgsDoneEvent closes a function-call item's argument stream with the
// accumulated argument string.
type ArgsDoneEvent struct {
	Type           string `json:"type"`
	SequenceNumber int    `json:"sequence_number"`
	ItemID         string `json:"item_id"`
	OutputIndex    int    `json:"output_index"`
	Arguments      string `json:"arguments"`
}

func (e ArgsDoneEvent) EventType() string { return e.Type }
func (e ArgsDoneEvent) Seq() int          { return e.SequenceNumber }
