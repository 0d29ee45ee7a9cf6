package scoring

import (
	"regexp"
	"strings"
)

var optionLetter = regexp.MustCompile(`^([a-d])\)`)

// Comparable is a normalized scalar answer. The zero value is the unanswered
// sentinel and never equals anything, itself included.
type Comparable struct {
	value    string
	answered bool
}

// Unanswered returns the sentinel used for empty or missing answers.
func Unanswered() Comparable { return Comparable{} }

func (c Comparable) Answered() bool { return c.answered }

func (c Comparable) String() string { return c.value }

// Equal reports an exact match of two answered values.
func (c Comparable) Equal(o Comparable) bool {
	return c.answered && o.answered && c.value == o.value
}

// NormalizeText trims and lower-cases s. Multiple-choice answers written as
// "A) Option text" collapse to their option letter.
func NormalizeText(s string, qt QuestionType) Comparable {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return Unanswered()
	}
	if qt == MultipleChoice {
		if m := optionLetter.FindStringSubmatch(v); m != nil {
			v = m[1]
		}
	}
	return Comparable{value: v, answered: true}
}

// Normalize reduces a single-part answer to a Comparable. A one-element List
// is accepted as its element; anything else that is not Text is unanswered.
func Normalize(raw Answer, qt QuestionType) Comparable {
	switch t := raw.(type) {
	case Text:
		return NormalizeText(string(t), qt)
	case List:
		if len(t) == 1 {
			return NormalizeText(t[0], qt)
		}
	}
	return Unanswered()
}

// alternatives normalizes a stored correct value into the set of accepted
// forms. The stored value itself is left untouched.
func alternatives(correct Answer, qt QuestionType) []Comparable {
	var out []Comparable
	switch t := correct.(type) {
	case Text:
		if c := NormalizeText(string(t), qt); c.Answered() {
			out = append(out, c)
		}
	case List:
		for _, v := range t {
			if c := NormalizeText(v, qt); c.Answered() {
				out = append(out, c)
			}
		}
	}
	return out
}

func matchesAny(student Comparable, accepted []Comparable) bool {
	for _, a := range accepted {
		if student.Equal(a) {
			return true
		}
	}
	return false
}
