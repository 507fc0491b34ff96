package service

import (
	"math/rand/v2"

	"github.com/iexsys/iexsys-backend/internal/model"
)

// Sampler picks n questions from a candidate pool. The assembler makes no
// guarantees about which candidates win — production sampling is random, and
// tests inject a deterministic implementation.
type Sampler interface {
	Sample(candidates []model.Question, n int) []model.Question
}

// randSampler shuffles a copy of the pool and takes the first n.
type randSampler struct{}

// NewRandSampler returns the production sampler backed by the system random
// source.
func NewRandSampler() Sampler {
	return randSampler{}
}

func (randSampler) Sample(candidates []model.Question, n int) []model.Question {
	shuffled := make([]model.Question, len(candidates))
	copy(shuffled, candidates)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
