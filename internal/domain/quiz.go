package domain

import "time"

// Quiz is a row of the quizzes collection shown on the quiz browser.
type Quiz struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Category      *string    `json:"category"`
	QuestionCount int        `json:"question_count"`
	IsPublished   bool       `json:"is_published"`
	CreatedAt     *time.Time `json:"created_at"`
}

// QuizFields is the projection loaded for quizzes.
var QuizFields = []string{"id", "title", "category", "question_count", "is_published", "created_at"}
