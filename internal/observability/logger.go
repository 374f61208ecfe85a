package observability

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeSession     EventType = "session"
	EventTypeReasoning   EventType = "reasoning"
	EventTypeToolCall    EventType = "tool_call"
	EventTypeToolResult  EventType = "tool_result"
	EventTypePolicyCheck EventType = "policy_check"
	EventTypeTurnError   EventType = "turn_error"
	EventTypeLLM         EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Turn      int       `json:"turn,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging. Events go through logrus; llm events
// are additionally appended to a jsonl file so full prompts can be replayed.
type Logger struct {
	entry      *logrus.Entry
	llmLogPath string
	maxSize    int64
	mu         sync.Mutex
}

// NewLogger writes to stderr. Terminals get logrus' text formatter,
// everything else gets JSON lines.
func NewLogger(logDir string) *Logger {
	return NewLoggerWithOutput(os.Stderr, logDir)
}

// NewLoggerWithOutput writes events to w. An empty logDir disables the llm
// transcript file.
func NewLoggerWithOutput(w io.Writer, logDir string) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	lg := &Logger{
		entry:   logrus.NewEntry(l).WithField("component", "agent"),
		maxSize: 10 * 1024 * 1024, // 10MB
	}
	if logDir != "" {
		lg.llmLogPath = filepath.Join(logDir, "llm.jsonl")
	}
	return lg
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLoggerWithOutput(io.Discard, "")
}

// Component returns an entry for diagnostics outside the agent event
// stream, such as tool transport errors or gateway traffic.
func (l *Logger) Component(name string) *logrus.Entry {
	return l.entry.WithField("component", name)
}

// SetLevel adjusts verbosity, e.g. logrus.DebugLevel for full prompts.
func (l *Logger) SetLevel(level logrus.Level) {
	l.entry.Logger.SetLevel(level)
}

// Log emits a structured event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	fields := logrus.Fields{"type": string(evt.Type)}
	if evt.SessionID != "" {
		fields["session_id"] = evt.SessionID
	}
	if evt.Turn > 0 {
		fields["turn"] = evt.Turn
	}
	if m, ok := evt.Data.(map[string]string); ok {
		for k, v := range m {
			fields[k] = v
		}
	} else if m, ok := evt.Data.(map[string]any); ok {
		for k, v := range m {
			fields[k] = v
		}
	} else if evt.Data != nil {
		fields["data"] = evt.Data
	}

	entry := l.entry.WithFields(fields).WithTime(evt.Timestamp)
	switch evt.Type {
	case EventTypeTurnError:
		entry.Warn(string(evt.Type))
	case EventTypeLLM:
		entry.Debug(string(evt.Type))
	default:
		entry.Info(string(evt.Type))
	}

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		data, err := json.Marshal(evt)
		if err != nil {
			l.entry.Errorf("failed to marshal event: %v", err)
			return
		}
		l.writeToFile(data)
	}
}

// Warnf logs a free-form diagnostic tied to a session.
func (l *Logger) Warnf(sessionID, format string, args ...any) {
	l.entry.WithField("session_id", sessionID).Warnf(format, args...)
}

func (l *Logger) writeToFile(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		l.entry.Errorf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		l.entry.Errorf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		l.entry.Errorf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogSession(sessionID, status string, turns int) {
	l.Log(Event{
		Type:      EventTypeSession,
		SessionID: sessionID,
		Turn:      turns,
		Data:      map[string]string{"status": status},
	})
}

func (l *Logger) LogReasoning(sessionID string, turn int, content string) {
	l.Log(Event{
		Type:      EventTypeReasoning,
		SessionID: sessionID,
		Turn:      turn,
		Data:      map[string]string{"content": content},
	})
}

func (l *Logger) LogToolCall(sessionID string, turn int, tool, args string) {
	l.Log(Event{
		Type:      EventTypeToolCall,
		SessionID: sessionID,
		Turn:      turn,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func (l *Logger) LogToolResult(sessionID string, turn int, tool, result string) {
	l.Log(Event{
		Type:      EventTypeToolResult,
		SessionID: sessionID,
		Turn:      turn,
		Data: map[string]string{
			"tool":   tool,
			"result": result,
		},
	})
}

func (l *Logger) LogPolicy(sessionID string, turn int, tool, effect, reason string) {
	l.Log(Event{
		Type:      EventTypePolicyCheck,
		SessionID: sessionID,
		Turn:      turn,
		Data: map[string]string{
			"tool":   tool,
			"effect": effect,
			"reason": reason,
		},
	})
}

func (l *Logger) LogTurnError(sessionID string, turn int, kind, detail string) {
	l.Log(Event{
		Type:      EventTypeTurnError,
		SessionID: sessionID,
		Turn:      turn,
		Data: map[string]string{
			"kind":   kind,
			"detail": detail,
		},
	})
}

func (l *Logger) LogLLM(sessionID string, turn int, prompt any, response string) {
	l.Log(Event{
		Type:      EventTypeLLM,
		SessionID: sessionID,
		Turn:      turn,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}
