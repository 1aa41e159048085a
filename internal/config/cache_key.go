package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LessonFeedChannel returns the Redis Pub/Sub channel carrying lesson
// change notifications (insert/update/delete on the lessons table).
func (r *CacheKeyStruct) LessonFeedChannel() string {
	return "lessons:feed"
}

// StudentLessonsLockKey returns the key used to flag an in-flight bulk
// materialization for a student, so operators can spot long enrolls.
func (r *CacheKeyStruct) StudentLessonsLockKey(studentID int) string {
	return fmt.Sprintf("student:%d:materializing", studentID)
}

var CacheKey = NewCacheKeyStruct()
