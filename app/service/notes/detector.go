package notes

import (
	"strings"
	"time"

	"github.com/elliotchance/pie/v2"
)

const (
	minSentenceLength = 10
	timestampLayout   = "2006-01-02 15:04"
)

// FindNewInformation compares summary against the existing character
// notes and returns a timestamped bullet block of the sentences that do
// not already appear there. The comparison is a lower-cased substring
// check, not semantic dedup: rephrased near-duplicates count as new.
// When checkPersona is set, sentences already present in the user
// persona are suppressed as well. The second return value is false when
// nothing new was found.
func FindNewInformation(summary, existingNotes, persona string, checkPersona bool) (string, bool) {
	return findNewInformationAt(summary, existingNotes, persona, checkPersona, time.Now())
}

func findNewInformationAt(summary, existingNotes, persona string, checkPersona bool, now time.Time) (string, bool) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", false
	}

	if strings.TrimSpace(existingNotes) == "" {
		return formatBlock([]string{summary}, now), true
	}

	lowerNotes := strings.ToLower(existingNotes)
	lowerPersona := strings.ToLower(persona)

	fresh := pie.Filter(splitSentences(summary), func(sentence string) bool {
		lower := strings.ToLower(sentence)

		if strings.Contains(lowerNotes, lower) {
			return false
		}
		if checkPersona && lowerPersona != "" && strings.Contains(lowerPersona, lower) {
			return false
		}

		return true
	})

	if len(fresh) == 0 {
		return "", false
	}

	return formatBlock(fresh, now), true
}

func splitSentences(text string) []string {
	var sentences []string

	for _, line := range strings.Split(text, "\n") {
		for _, fragment := range strings.Split(line, ". ") {
			sentence := strings.TrimSpace(fragment)
			sentence = strings.TrimSuffix(sentence, ".")

			if len(sentence) < minSentenceLength {
				continue
			}

			sentences = append(sentences, sentence)
		}
	}

	return sentences
}

func formatBlock(sentences []string, now time.Time) string {
	var builder strings.Builder

	builder.WriteString("\n\n--- Memory Update (")
	builder.WriteString(now.Format(timestampLayout))
	builder.WriteString(") ---")

	for _, sentence := range sentences {
		builder.WriteString("\n• ")
		builder.WriteString(sentence)
	}

	return builder.String()
}
