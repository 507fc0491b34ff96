package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// RoomAnswersKey returns the cache key for an exam room's buffered answers.
func (r *CacheKeyStruct) RoomAnswersKey(sessionID string) string {
	return fmt.Sprintf("room:%s:answers", sessionID)
}

var CacheKey = NewCacheKeyStruct()
