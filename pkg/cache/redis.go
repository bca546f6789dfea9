package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/lms-grading-api/pkg/config"
)

const gradePrefix = "grades"

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// StudentGradeKey is the cache key of one student's course grade.
func StudentGradeKey(courseID, studentID string) string {
	return key(gradePrefix, courseID, "student", studentID)
}

// CourseReportKey is the cache key of a course grade report.
func CourseReportKey(courseID string) string {
	return key(gradePrefix, courseID, "report")
}

// CoursePattern matches every grade cache entry of a course.
func CoursePattern(courseID string) string {
	return key(gradePrefix, courseID) + ":*"
}

// keyEscaper percent-encodes the separator and glob characters so distinct ids
// always map to distinct keys and CoursePattern only matches its own course.
var keyEscaper = strings.NewReplacer(
	"%", "%25",
	":", "%3A",
	"*", "%2A",
	"?", "%3F",
	"[", "%5B",
	"]", "%5D",
	`\`, "%5C",
)

func key(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = keyEscaper.Replace(p)
	}
	return strings.Join(escaped, ":")
}
