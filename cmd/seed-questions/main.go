package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iexsys/iexsys-backend/internal/config"
	"github.com/iexsys/iexsys-backend/internal/database"
	"github.com/iexsys/iexsys-backend/internal/logger"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/iexsys/iexsys-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo teacher, a batch of students, and a question pool large enough
// to exercise rule-driven assembly for every question type.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Println("=== Seeding demo users and question pool ===")

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	teacher := &model.User{
		Username:     "teacher1",
		DisplayName:  "Demo Teacher",
		PasswordHash: string(hash),
		Role:         model.RoleTeacher,
	}
	if err := userRepo.Create(ctx, teacher); err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo teacher (already seeded?)")
	}
	fmt.Printf("Created teacher '%s' with ID: %d\n", teacher.Username, teacher.ID)

	for i := 1; i <= 10; i++ {
		student := &model.User{
			Username:     fmt.Sprintf("student%d", i),
			DisplayName:  fmt.Sprintf("Demo Student %d", i),
			PasswordHash: string(hash),
			Role:         model.RoleStudent,
		}
		if err := userRepo.Create(ctx, student); err != nil {
			fmt.Printf("Error creating %s: %v\n", student.Username, err)
		}
	}
	fmt.Println("Created 10 students")

	choiceOptions, _ := json.Marshal([]map[string]string{
		{"key": "A", "text": "Option A"},
		{"key": "B", "text": "Option B"},
		{"key": "C", "text": "Option C"},
		{"key": "D", "text": "Option D"},
	})
	judgeOptions, _ := json.Marshal([]map[string]string{
		{"key": "true", "text": "True"},
		{"key": "false", "text": "False"},
	})

	type seedSpec struct {
		qt      model.QuestionType
		count   int
		score   float64
		options json.RawMessage
		answer  string
	}
	specs := []seedSpec{
		{model.QuestionTypeSingle, 20, 2, choiceOptions, "A"},
		{model.QuestionTypeMultiple, 10, 4, choiceOptions, "A,C"},
		{model.QuestionTypeJudge, 15, 1, judgeOptions, "true"},
		{model.QuestionTypeEssay, 5, 10, nil, "sample answer"},
	}

	successCount := 0
	for _, spec := range specs {
		for i := 1; i <= spec.count; i++ {
			q := &model.Question{
				Type:          spec.qt,
				Title:         fmt.Sprintf("Demo %s question #%d", spec.qt, i),
				Options:       spec.options,
				CorrectAnswer: spec.answer,
				Analysis:      "Seeded for local development.",
				Score:         spec.score,
				Difficulty:    1 + i%3,
				CreatorID:     teacher.ID,
			}
			if err := questionRepo.Create(ctx, q); err != nil {
				fmt.Printf("Error creating %s question #%d: %v\n", spec.qt, i, err)
				continue
			}
			successCount++
		}
	}

	fmt.Printf("\nSeed completed! Added %d questions.\n", successCount)
}
