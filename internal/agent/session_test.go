package agent

import (
	"testing"
	"time"
)

func TestSession_TryStart(t *testing.T) {
	var s Session
	if !s.TryStart() {
		t.Fatal("first start should succeed")
	}
	if s.TryStart() {
		t.Error("second start should be refused while running")
	}
	if !s.Running() {
		t.Error("session should report running")
	}
	s.Done()
	if !s.TryStart() {
		t.Error("start should succeed after Done")
	}

	var other Session
	if !other.TryStart() {
		t.Error("separate sessions must not share state")
	}
}

func TestResolveTimeframe(t *testing.T) {
	now := time.Date(2025, 5, 31, 22, 0, 0, 0, time.UTC)

	tf, err := ResolveTimeframe("today", now)
	if err != nil {
		t.Fatal(err)
	}
	if tf.EventKey != EventKeyToday || tf.WeatherDate != "2025-05-31" {
		t.Errorf("unexpected today %+v", tf)
	}

	tf, err = ResolveTimeframe(" Tomorrow ", now)
	if err != nil {
		t.Fatal(err)
	}
	if tf.EventKey != EventKeyTomorrow || tf.WeatherDate != "2025-06-01" {
		t.Errorf("unexpected tomorrow %+v", tf)
	}

	if _, err := ResolveTimeframe("next week", now); err == nil {
		t.Error("expected an error for unknown timeframe")
	}
}

func TestTranscript_MessagesIsACopy(t *testing.T) {
	tr := NewTranscript("s", "u")
	msgs := tr.Messages()
	msgs[0].Content = "changed"
	if tr.Messages()[0].Content != "s" {
		t.Error("Messages must not expose internal storage")
	}
	tr.Append(Message{Role: RoleAssistant, Content: "a"})
	if tr.Len() != 3 || tr.Last().Content != "a" {
		t.Errorf("unexpected transcript state len=%d last=%q", tr.Len(), tr.Last().Content)
	}
}
