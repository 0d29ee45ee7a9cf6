package scoring

import "math"

// DefaultTotalItems is the item count the Reading and Listening band tables
// are defined against.
const DefaultTotalItems = 40

// ModuleScore aggregates the question scores of one module.
type ModuleScore struct {
	// CorrectCount is the number of questions answered fully correctly.
	CorrectCount int
	// TotalQuestions is the sum of question points, not the question count.
	TotalQuestions int
	// RawScore is the sum of earned points, fractional credit included.
	RawScore float64
	// Unscorable lists questions that had no correct answer on record.
	Unscorable []string
}

// ScoreModule scores every question against answers keyed by question ID.
// It performs no I/O and returns the same result for the same inputs.
func ScoreModule(questions []Question, answers map[string]Answer) ModuleScore {
	var ms ModuleScore
	for _, q := range questions {
		s := ScoreQuestion(q, answers[q.ID])
		ms.RawScore += s.Earned
		ms.TotalQuestions += int(s.Max)
		if s.Unscorable {
			ms.Unscorable = append(ms.Unscorable, q.ID)
			continue
		}
		if s.FullyCorrect() {
			ms.CorrectCount++
		}
	}
	return ms
}

// Fraction is RawScore over TotalQuestions, 0 for an empty module.
func (m ModuleScore) Fraction() float64 {
	if m.TotalQuestions <= 0 {
		return 0
	}
	return m.RawScore / float64(m.TotalQuestions)
}

// Scaled maps the raw score onto a fixed item scale (40 for the IELTS band
// tables) as round(raw / total * items).
func (m ModuleScore) Scaled(totalItems int) int {
	if totalItems <= 0 {
		totalItems = DefaultTotalItems
	}
	return int(math.Floor(m.Fraction()*float64(totalItems) + 0.5))
}
