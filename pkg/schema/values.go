package schema

// RichKind identifies a rich domain object kind. The set of kinds is fixed
// at the system level; it is the allow-list the safety policy enforces.
type RichKind string

const (
	RichKindMessage  RichKind = "message"
	RichKindDocument RichKind = "document"
	RichKindAnswer   RichKind = "answer"
)

// RichKinds returns the fixed set of rich object kinds.
func RichKinds() []RichKind {
	return []RichKind{RichKindMessage, RichKindDocument, RichKindAnswer}
}

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    string         `json:"role"`
	Content string         `json:"content"`
	Name    string         `json:"name,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Document is a retrievable unit of content with optional relevance score.
type Document struct {
	ID      string         `json:"id"`
	Content string         `json:"content"`
	Score   float64        `json:"score,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Answer is a generated answer with the documents that grounded it.
type Answer struct {
	Query     string         `json:"query"`
	Data      string         `json:"data"`
	Documents []*Document    `json:"documents,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// KindOf reports the rich kind of a value, or false if the value is not a
// rich domain object. Both pointer and value forms are recognized.
func KindOf(v any) (RichKind, bool) {
	switch v.(type) {
	case *ChatMessage, ChatMessage:
		return RichKindMessage, true
	case *Document, Document:
		return RichKindDocument, true
	case *Answer, Answer:
		return RichKindAnswer, true
	default:
		return "", false
	}
}

// IsRich reports whether a value is a rich domain object.
func IsRich(v any) bool {
	_, ok := KindOf(v)
	return ok
}
