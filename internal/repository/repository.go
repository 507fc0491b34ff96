package repository

import (
	"errors"

	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// ErrNoRowsAffected is returned when an update or delete matched no rows.
var ErrNoRowsAffected = errors.New("no rows affected")

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Type, &q.Title, &q.Options, &q.CorrectAnswer, &q.Analysis, &q.Score, &q.Difficulty, &q.CreatorID, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
