package quiz

import (
	"strings"

	"github.com/arnalearn/arna/core/assignment"
)

// DefaultPointsPerQuestion yields 0-100 over five questions.
const DefaultPointsPerQuestion = 20

// Score awards points for every question whose submitted answer equals the correct one, ignoring case.
// Missing answers score nothing.
func Score(questions []assignment.Question, answers map[int]string, points int) int {
	var score int
	for _, q := range questions {
		if ans, ok := answers[q.ID]; ok && strings.EqualFold(ans, q.CorrectAnswer) {
			score += points
		}
	}
	return score
}
