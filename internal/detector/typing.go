package detector

import "time"

// KeyEvent is one client-reported keystroke. Timestamps are client-clock
// milliseconds; only the distances between them matter here.
type KeyEvent struct {
	Timestamp int64  `json:"timestamp"`
	Key       string `json:"key"`
	Type      string `json:"type"` // "keydown" or "keyup"
}

// TypingAnalysis summarizes the cadence of one answer. Suspicious is a
// recall-biased advisory flag; Reasons names every rule that fired.
type TypingAnalysis struct {
	WPM            float64  `json:"wpm"`
	CPM            float64  `json:"cpm"`
	AvgPauseMillis float64  `json:"avgPauseTime"`
	LongPauses     int      `json:"longPauses"`
	VeryLongPauses int      `json:"veryLongPauses"`
	ShortPauses    int      `json:"shortPauses"`
	Backspaces     int      `json:"backspaces"`
	TotalSeconds   float64  `json:"totalTime"`
	CharCount      int      `json:"charCount"`
	PauseCount     int      `json:"pauseCount"`
	Suspicious     bool     `json:"suspicious"`
	Reasons        []string `json:"suspiciousReasons,omitempty"`
}

const (
	longPauseMillis     = 3 * int64(time.Second/time.Millisecond)
	veryLongPauseMillis = 10 * int64(time.Second/time.Millisecond)
	shortPauseMillis    = 100
)

// AnalyzeTyping derives typing metrics from the raw keystroke timeline and
// the final text, and flags cadences a human typist is unlikely to produce.
// With no events there is nothing to judge and the result is empty.
func AnalyzeTyping(events []KeyEvent, text string) TypingAnalysis {
	if len(events) == 0 {
		return TypingAnalysis{}
	}

	first := events[0].Timestamp
	last := events[0].Timestamp
	backspaces := 0
	var keyDowns []int64
	for _, event := range events {
		if event.Timestamp < first {
			first = event.Timestamp
		}
		if event.Timestamp > last {
			last = event.Timestamp
		}
		if event.Key == "Backspace" {
			backspaces++
		}
		if event.Type == "keydown" {
			keyDowns = append(keyDowns, event.Timestamp)
		}
	}

	totalMinutes := float64(last-first) / 1000 / 60
	wordCount := len(splitWords(text))
	charCount := len([]rune(text))

	wpm := 0.0
	cpm := 0.0
	if totalMinutes > 0 {
		wpm = float64(wordCount) / totalMinutes
		cpm = float64(charCount) / totalMinutes
	}

	var pauses []int64
	for i := 1; i < len(keyDowns); i++ {
		pauses = append(pauses, keyDowns[i]-keyDowns[i-1])
	}

	var pauseSum int64
	longPauses, veryLongPauses, shortPauses := 0, 0, 0
	for _, pause := range pauses {
		pauseSum += pause
		if pause > longPauseMillis {
			longPauses++
		}
		if pause > veryLongPauseMillis {
			veryLongPauses++
		}
		if pause < shortPauseMillis {
			shortPauses++
		}
	}
	avgPause := 0.0
	if len(pauses) > 0 {
		avgPause = float64(pauseSum) / float64(len(pauses))
	}

	var reasons []string
	switch {
	case wpm > 150:
		reasons = append(reasons, "Velocidad extremadamente alta")
	case wpm > 100:
		reasons = append(reasons, "Velocidad muy alta")
	}
	if cpm > 600 {
		reasons = append(reasons, "Caracteres por minuto muy alto")
	}
	if wpm > 80 && backspaces < 3 {
		reasons = append(reasons, "Alta velocidad sin errores")
	}
	if veryLongPauses > 2 {
		reasons = append(reasons, "Múltiples pausas muy largas (posible copia)")
	}
	if charCount > 0 && float64(shortPauses) > float64(charCount)*0.8 {
		reasons = append(reasons, "Escritura demasiado uniforme")
	}
	if avgPause > float64(longPauseMillis) {
		reasons = append(reasons, "Pausas promedio muy largas")
	}
	if totalMinutes < 0.5 && charCount > 50 {
		reasons = append(reasons, "Respuesta larga en tiempo muy corto")
	}

	return TypingAnalysis{
		WPM:            wpm,
		CPM:            cpm,
		AvgPauseMillis: avgPause,
		LongPauses:     longPauses,
		VeryLongPauses: veryLongPauses,
		ShortPauses:    shortPauses,
		Backspaces:     backspaces,
		TotalSeconds:   float64(last-first) / 1000,
		CharCount:      charCount,
		PauseCount:     len(pauses),
		Suspicious:     len(reasons) > 0,
		Reasons:        reasons,
	}
}
