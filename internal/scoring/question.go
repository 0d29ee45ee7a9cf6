package scoring

// QuestionType discriminates how a question's answers are shaped and scored.
type QuestionType string

const (
	MultipleChoice    QuestionType = "MULTIPLE_CHOICE"
	FillInBlank       QuestionType = "FILL_IN_BLANK"
	Matching          QuestionType = "MATCHING"
	MatchingHeadings  QuestionType = "MATCHING_HEADINGS"
	TrueFalseNotGiven QuestionType = "TRUE_FALSE_NOT_GIVEN"
	NotesCompletion   QuestionType = "NOTES_COMPLETION"
	SummaryCompletion QuestionType = "SUMMARY_COMPLETION"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, FillInBlank, Matching, MatchingHeadings,
		TrueFalseNotGiven, NotesCompletion, SummaryCompletion:
		return true
	}
	return false
}

// MultiPart reports whether the type earns fractional credit per part.
func (t QuestionType) MultiPart() bool {
	switch t {
	case Matching, MatchingHeadings, NotesCompletion, SummaryCompletion:
		return true
	}
	return false
}

// Question is the scoring view of an authored question.
type Question struct {
	ID      string
	Type    QuestionType
	Points  int
	Correct Answer
}

// MaxPoints is the question's weight; non-positive points count as 1.
func (q Question) MaxPoints() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// QuestionScore is the outcome of scoring one question.
type QuestionScore struct {
	Earned       float64
	Max          float64
	Parts        int
	CorrectParts int
	// Unscorable is set when the question has no correct answer on record.
	Unscorable bool
}

func (s QuestionScore) FullyCorrect() bool {
	return !s.Unscorable && s.Max > 0 && s.Earned >= s.Max
}

// ScoreQuestion scores one student answer against q. It never fails: a
// question without a correct answer earns nothing and is flagged Unscorable.
func ScoreQuestion(q Question, student Answer) QuestionScore {
	points := q.MaxPoints()
	res := QuestionScore{Max: float64(points)}

	if q.Correct == nil {
		res.Unscorable = true
		return res
	}
	if _, keyed := q.Correct.(Parts); keyed || q.Type.MultiPart() {
		return scoreParts(q, student, res)
	}

	res.Parts = 1
	if matchesAny(Normalize(student, q.Type), alternatives(q.Correct, q.Type)) {
		res.CorrectParts = 1
		res.Earned = res.Max
	}
	return res
}

// scoreParts awards (correct parts / total parts) * points. The denominator
// comes from the correct answer, never from what the student submitted.
func scoreParts(q Question, student Answer, res QuestionScore) QuestionScore {
	want := leaves(q.Correct)
	if len(want) == 0 {
		res.Unscorable = true
		return res
	}
	got := leaves(student)

	for path, correct := range want {
		if matchesAny(Normalize(got[path], q.Type), alternatives(correct, q.Type)) {
			res.CorrectParts++
		}
	}
	res.Parts = len(want)
	res.Earned = float64(res.CorrectParts) * res.Max / float64(res.Parts)
	return res
}
