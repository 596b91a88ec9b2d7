package transport

import "testing"

func TestMockSendReturnsScriptedResults(t *testing.T) {
	m := NewMock(StatusTimeout, StatusSuccess)

	if got := m.Send([]byte{1}); got != StatusTimeout {
		t.Fatalf("first Send() = %s, want timeout", got)
	}
	if got := m.Send([]byte{2}); got != StatusSuccess {
		t.Fatalf("second Send() = %s, want success", got)
	}
	// Exhausted: repeats the last scripted result.
	if got := m.Send([]byte{3}); got != StatusSuccess {
		t.Fatalf("third Send() = %s, want success (sticky last result)", got)
	}

	if m.Calls() != 3 {
		t.Fatalf("Calls() = %d, want 3", m.Calls())
	}
	if len(m.Sent()) != 3 {
		t.Fatalf("Sent() len = %d, want 3", len(m.Sent()))
	}
}

func TestMockWithNoResultsDefaultsToSuccess(t *testing.T) {
	m := NewMock()
	if got := m.Send([]byte{1}); got != StatusSuccess {
		t.Fatalf("Send() = %s, want success", got)
	}
}
