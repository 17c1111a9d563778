package message

import (
	"sync"
	"time"
)

// Severity classifies a user-facing message for styling.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

const (
	// maxMessages bounds the queue length.
	maxMessages = 5
	// maxAge is how long a message stays visible.
	maxAge = 10 * time.Second
)

// Message is one line shown to the user.
type Message struct {
	At       time.Time
	Text     string
	Severity Severity
}

// Queue is a bounded, time-ordered queue of user-facing status lines.
// Safe for concurrent use by transfer workers and the render loop.
type Queue struct {
	mu       sync.Mutex
	messages []Message
}

func NewQueue() *Queue {
	return &Queue{}
}

// Report appends an informational message.
func (q *Queue) Report(text string) {
	q.push(text, Info)
}

// Warn appends a warning.
func (q *Queue) Warn(text string) {
	q.push(text, Warning)
}

// Error appends an error line.
func (q *Queue) Error(text string) {
	q.push(text, Error)
}

func (q *Queue) push(text string, severity Severity) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, Message{At: time.Now(), Text: text, Severity: severity})
	if len(q.messages) > maxMessages {
		q.messages = q.messages[len(q.messages)-maxMessages:]
	}
}

// Lines evicts expired messages and returns a snapshot of the rest,
// oldest first.
func (q *Queue) Lines() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	oldest := time.Now().Add(-maxAge)
	cut := 0
	for cut < len(q.messages) && q.messages[cut].At.Before(oldest) {
		cut++
	}
	q.messages = q.messages[cut:]

	out := make([]Message, len(q.messages))
	copy(out, q.messages)
	return out
}
