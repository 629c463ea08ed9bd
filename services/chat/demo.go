package chat

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// matchThreshold is the lowest similarity ratio accepted as the same question.
const matchThreshold = 0.6

type qa struct {
	question string
	answer   string
}

var rulebook = []qa{
	{
		"What is the minimum attendance required?",
		"A minimum of 75% attendance is required in every subject to be eligible for the end term examination.",
	},
	{
		"What happens if my attendance is below 75%?",
		"Students with less than 75% attendance in a subject may be debarred from the end term examination of that subject.",
	},
	{
		"How is the SGPA calculated?",
		"SGPA is the sum of the grade points times the course credits of the semester, divided by the total course credits.",
	},
	{
		"How is the CGPA calculated?",
		"CGPA is the credit weighted average of the grade points of all the courses taken so far.",
	},
	{
		"How many tests are held in a semester?",
		"Every semester has two mid term tests (T1 and T2) and an end term examination (T3).",
	},
	{
		"Can I apply for a re-evaluation?",
		"Re-evaluation of the end term answer sheet can be requested within the notified period after the results, on payment of the fee.",
	},
	{
		"What is an audit course?",
		"An audit course must be attended and passed but carries no credits and does not count towards the SGPA.",
	},
	{
		"What is the grading scale?",
		"Grades are A+ (10), A (9), B+ (8), B (7), C+ (6), C (5), D (4) and F (0).",
	},
}

type demo struct {
	pairs []qa
}

// NewDemo returns an Asker answering from a small built-in rulebook, without network access.
func NewDemo() Asker {
	return &demo{pairs: rulebook}
}

func (d *demo) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	q, err := cleanQuestion(question)
	if err != nil {
		return "", err
	}

	best, bestRatio := -1, 0.0
	for i, p := range d.pairs {
		if r := similarity(q, p.question); r > bestRatio {
			best, bestRatio = i, r
		}
	}
	if best < 0 || bestRatio < matchThreshold {
		return NotFound, nil
	}
	return d.pairs[best].answer, nil
}

// similarity is the difflib ratio of the two questions, compared character by character.
func similarity(a, b string) float64 {
	m := difflib.NewMatcher(chars(a), chars(b))
	return m.Ratio()
}

func chars(s string) []string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	s = strings.TrimRight(s, "?!. ")
	return strings.Split(s, "")
}
