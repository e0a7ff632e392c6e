package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrefixedIntPrefixedWins(t *testing.T) {
	t.Setenv("NOW_LMS_WORKERS", "8")
	t.Setenv("WORKERS", "2")

	assert.Equal(t, 8, prefixedInt("NOW_LMS_WORKERS", "WORKERS", 0))
}

func TestPrefixedIntPlainFallback(t *testing.T) {
	t.Setenv("WORKERS", "3")

	assert.Equal(t, 3, prefixedInt("NOW_LMS_WORKERS", "WORKERS", 0))
}

func TestPrefixedIntDefault(t *testing.T) {
	assert.Equal(t, 200, prefixedInt("NOW_LMS_WORKER_MEMORY_MB", "WORKER_MEMORY_MB", 200))
}

func TestPrefixedIntSkipsNonNumeric(t *testing.T) {
	t.Setenv("NOW_LMS_THREADS", "lots")
	t.Setenv("THREADS", "4")

	// The garbled prefixed value yields to the next candidate.
	assert.Equal(t, 4, prefixedInt("NOW_LMS_THREADS", "THREADS", 1))
}

func TestPrefixedIntNonNumericEverywhere(t *testing.T) {
	t.Setenv("NOW_LMS_THREADS", "lots")
	t.Setenv("THREADS", " ")

	assert.Equal(t, 1, prefixedInt("NOW_LMS_THREADS", "THREADS", 1))
}

func TestPrefixedIntTrimsWhitespace(t *testing.T) {
	t.Setenv("WORKERS", " 5 ")

	assert.Equal(t, 5, prefixedInt("NOW_LMS_WORKERS", "WORKERS", 0))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		splitAndTrim(" https://a.example , https://b.example ,"))
}
