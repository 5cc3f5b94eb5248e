package detector

import (
	"reflect"
	"strings"
	"testing"
)

// typedEvents builds a keydown timeline with a fixed gap between keys.
func typedEvents(count int, gapMillis int64) []KeyEvent {
	events := make([]KeyEvent, 0, count)
	var at int64
	for i := 0; i < count; i++ {
		events = append(events, KeyEvent{Timestamp: at, Key: "a", Type: "keydown"})
		at += gapMillis
	}
	return events
}

func TestAnalyzeTypingEmptyTimeline(t *testing.T) {
	analysis := AnalyzeTyping(nil, "texto")
	if analysis.Suspicious || len(analysis.Reasons) != 0 {
		t.Fatalf("no events means nothing to judge: %+v", analysis)
	}
}

func TestAnalyzeTypingNormalCadence(t *testing.T) {
	// ~200 keys over ~80s with human-looking gaps, some corrections.
	events := typedEvents(200, 400)
	events = append(events, KeyEvent{Timestamp: 80_200, Key: "Backspace", Type: "keydown"})
	events = append(events, KeyEvent{Timestamp: 80_600, Key: "Backspace", Type: "keydown"})
	events = append(events, KeyEvent{Timestamp: 81_000, Key: "Backspace", Type: "keydown"})
	text := strings.Repeat("palabra corta ", 14) // ~28 words in ~1.35min

	analysis := AnalyzeTyping(events, text)
	if analysis.Suspicious {
		t.Fatalf("normal cadence flagged: %v", analysis.Reasons)
	}
	if analysis.Backspaces != 3 {
		t.Fatalf("want 3 backspaces, got %d", analysis.Backspaces)
	}
}

func TestAnalyzeTypingImpossibleSpeed(t *testing.T) {
	// 300 words appearing inside two seconds of keystrokes.
	events := typedEvents(20, 100)
	text := strings.Repeat("palabra ", 300)

	analysis := AnalyzeTyping(events, text)
	if !analysis.Suspicious {
		t.Fatalf("expected an impossible wpm to be flagged")
	}

	reasons := strings.Join(analysis.Reasons, "\n")
	if !strings.Contains(reasons, "Velocidad extremadamente alta") {
		t.Fatalf("expected the extreme-speed reason, got: %s", reasons)
	}
}

func TestAnalyzeTypingFastWithoutErrors(t *testing.T) {
	// ~90 wpm with zero backspaces reads as pasted-then-tweaked text.
	events := typedEvents(450, 133) // ~60s of typing
	text := strings.Repeat("palabra ", 90)

	analysis := AnalyzeTyping(events, text)
	reasons := strings.Join(analysis.Reasons, "\n")
	if !strings.Contains(reasons, "Alta velocidad sin errores") {
		t.Fatalf("expected the no-errors reason, got: %s", reasons)
	}
}

func TestAnalyzeTypingLongCopyPauses(t *testing.T) {
	// Three >10s gaps in an otherwise slow timeline.
	events := []KeyEvent{
		{Timestamp: 0, Key: "a", Type: "keydown"},
		{Timestamp: 11_000, Key: "b", Type: "keydown"},
		{Timestamp: 22_500, Key: "c", Type: "keydown"},
		{Timestamp: 34_000, Key: "d", Type: "keydown"},
		{Timestamp: 34_500, Key: "e", Type: "keydown"},
	}

	analysis := AnalyzeTyping(events, "abcde")
	reasons := strings.Join(analysis.Reasons, "\n")
	if !strings.Contains(reasons, "posible copia") {
		t.Fatalf("expected the copy-paste pause reason, got: %s", reasons)
	}
	if analysis.VeryLongPauses != 3 {
		t.Fatalf("want 3 very long pauses, got %d", analysis.VeryLongPauses)
	}
}

func TestAnalyzeTypingUniformCadence(t *testing.T) {
	// Every gap under 100ms across a long text reads as injected input.
	events := typedEvents(200, 50)
	text := strings.Repeat("a", 150)

	analysis := AnalyzeTyping(events, text)
	reasons := strings.Join(analysis.Reasons, "\n")
	if !strings.Contains(reasons, "Escritura demasiado uniforme") {
		t.Fatalf("expected the uniform-cadence reason, got: %s", reasons)
	}
}

func TestAnalyzeTypingIsIdempotent(t *testing.T) {
	events := typedEvents(50, 250)
	text := "una respuesta cualquiera para analizar"

	first := AnalyzeTyping(events, text)
	second := AnalyzeTyping(events, text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same timeline must analyze identically")
	}
}
