// Package detector scores free text for AI-likeness and typing cadence
// anomalies. Everything here is a pure function over its input: same text,
// same score. The output is advisory metadata for human reviewers and never
// blocks a submission.
package detector

import (
	"fmt"
	"regexp"
	"strings"
)

// Phrase patterns typical of machine-generated Spanish answers, grouped by
// category. Every match contributes a fixed weight and a labeled finding so
// reviewers can see why the score fired.
var patternCategories = []struct {
	name     string
	once     bool // anchored phrases count once, not per occurrence
	patterns []*regexp.Regexp
}{
	{
		name: "openings",
		once: true,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(como|en tanto|dado que|considerando que)`),
			regexp.MustCompile(`(?i)^(es importante (mencionar|destacar|recordar|considerar))`),
			regexp.MustCompile(`(?i)^(cabe (destacar|mencionar|señalar))`),
			regexp.MustCompile(`(?i)^(vale la pena (mencionar|destacar))`),
			regexp.MustCompile(`(?i)^(hay que tener en cuenta)`),
			regexp.MustCompile(`(?i)^(para (responder|abordar|contestar))`),
			regexp.MustCompile(`(?i)^(en el contexto de)`),
			regexp.MustCompile(`(?i)^(desde el punto de vista)`),
		},
	},
	{
		name: "connectors",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(por otro lado|además|asimismo|por tanto|en consecuencia)`),
			regexp.MustCompile(`(?i)(no obstante|sin embargo|por el contrario)`),
			regexp.MustCompile(`(?i)(en primer lugar|en segundo lugar|finalmente)`),
			regexp.MustCompile(`(?i)(de manera similar|de igual forma|por consiguiente)`),
			regexp.MustCompile(`(?i)(en este sentido|en esta línea|bajo esta perspectiva)`),
		},
	},
	{
		name: "formal",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)en (resumen|conclusión|síntesis)`),
			regexp.MustCompile(`(?i)(dicho esto|habiendo dicho esto)`),
			regexp.MustCompile(`(?i)(es fundamental|es crucial|es esencial)`),
			regexp.MustCompile(`(?i)desde (mi|una) perspectiva`),
			regexp.MustCompile(`(?i)(implementar|optimizar|eficiencia|metodología)`),
			regexp.MustCompile(`(?i)(paradigma|framework|arquitectura|escalabilidad)`),
			regexp.MustCompile(`(?i)(robustez|versatilidad|flexibilidad)`),
		},
	},
	{
		name: "evasive",
		once: true,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)no puedo (proporcionar|dar|ofrecer)`),
			regexp.MustCompile(`(?i)como (modelo de IA|asistente|sistema)`),
			regexp.MustCompile(`(?i)no tengo acceso a`),
			regexp.MustCompile(`(?i)depende del contexto`),
		},
	},
	{
		name: "structure",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*(\d+\.|-|\*)`),
			regexp.MustCompile(`(?m):\s*$`),
			regexp.MustCompile(`(?m)^#{1,6}\s`),
		},
	},
}

var (
	formalVocabulary = regexp.MustCompile(`(?i)\b(implementar|optimizar|eficiencia|metodología|paradigma|framework|arquitectura|escalabilidad|robustez|versatilidad)\b`)
	listStart        = regexp.MustCompile(`^\s*[\d\-\*]`)
	headingStart     = regexp.MustCompile(`(?m)^#{1,6}\s`)
	sentenceSplit    = regexp.MustCompile(`[.!?]+`)
	whitespaceSplit  = regexp.MustCompile(`\s+`)
)

// PatternAnalysis is the raw pattern-matching pass over one text.
type PatternAnalysis struct {
	Score       int      `json:"score"`
	Probability float64  `json:"probability"`
	Findings    []string `json:"findings"`
	IsLikelyAI  bool     `json:"isLikelyAI"`
}

// ContentResult wraps the pattern pass with the statistical features and the
// confidence banding exposed on the detect-ai endpoint.
type ContentResult struct {
	AIProbability float64        `json:"aiProbability"`
	Confidence    string         `json:"confidence"`
	Details       ContentDetails `json:"details"`
}

type ContentDetails struct {
	PatternAnalysis     PatternAnalysis `json:"patternAnalysis"`
	AvgWordsPerSentence float64         `json:"avgWordsPerSentence"`
	LexicalDiversity    float64         `json:"lexicalDiversity"`
	TooStructured       bool            `json:"tooStructured"`
	FinalScore          int             `json:"finalScore"`
}

func splitWords(text string) []string {
	var words []string
	for _, w := range whitespaceSplit.Split(text, -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func splitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func lexicalDiversity(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(unique)) / float64(len(words))
}

// Analyze runs the categorized pattern pass plus the in-pass statistical
// checks. Bias is toward flagging: a human reviews anything it raises.
func Analyze(text string) PatternAnalysis {
	score := 0
	findings := []string{}

	for _, category := range patternCategories {
		for _, pattern := range category.patterns {
			matches := pattern.FindAllString(text, -1)
			if len(matches) == 0 {
				continue
			}
			hits := len(matches)
			if category.once {
				hits = 1
			}
			score += hits * 10
			findings = append(findings, fmt.Sprintf("%s: %q", category.name, matches[0]))
		}
	}

	words := splitWords(text)
	sentences := splitSentences(text)

	if len(words) > 150 {
		score += 20
		findings = append(findings, "Respuesta excesivamente larga")
	}

	if len(sentences) > 0 && float64(len(words))/float64(len(sentences)) > 20 {
		score += 15
		findings = append(findings, "Oraciones muy largas")
	}

	if len(formalVocabulary.FindAllString(text, -1)) > 2 {
		score += 20
		findings = append(findings, "Vocabulario excesivamente técnico")
	}

	if listStart.MatchString(text) && strings.Contains(text, ":") {
		score += 15
		findings = append(findings, "Estructura demasiado perfecta")
	}

	if len(words) > 50 && lexicalDiversity(words) < 0.5 {
		score += 10
		findings = append(findings, "Vocabulario repetitivo")
	}

	probability := float64(score) / 100
	if probability > 1 {
		probability = 1
	}

	return PatternAnalysis{
		Score:       score,
		Probability: probability,
		Findings:    findings,
		IsLikelyAI:  score > 25,
	}
}

// DetectContent is the full scoring pass: pattern analysis plus the
// document-level statistical features, banded into a confidence label.
func DetectContent(text string) ContentResult {
	analysis := Analyze(text)

	words := splitWords(text)
	sentences := splitSentences(text)

	avgWordsPerSentence := 0.0
	if len(sentences) > 0 {
		avgWordsPerSentence = float64(len(words)) / float64(len(sentences))
	}
	diversity := lexicalDiversity(words)
	// A leading list marker combined with a markdown heading on any line.
	tooStructured := listStart.MatchString(strings.TrimSpace(text)) && headingStart.MatchString(text)

	finalScore := analysis.Score
	if avgWordsPerSentence > 20 {
		finalScore += 10
	}
	if diversity < 0.4 {
		finalScore += 15
	}
	if tooStructured {
		finalScore += 20
	}
	if len(text) > 500 && len(sentences) < 5 {
		finalScore += 15
	}

	probability := float64(finalScore) / 100
	if probability > 1 {
		probability = 1
	}

	confidence := "low"
	switch {
	case finalScore > 50:
		confidence = "high"
	case finalScore > 25:
		confidence = "medium"
	}

	return ContentResult{
		AIProbability: probability,
		Confidence:    confidence,
		Details: ContentDetails{
			PatternAnalysis:     analysis,
			AvgWordsPerSentence: avgWordsPerSentence,
			LexicalDiversity:    diversity,
			TooStructured:       tooStructured,
			FinalScore:          finalScore,
		},
	}
}
