package service

import (
	"time"

	"github.com/google/uuid"
)

// Clock 注入当前时间，测试中可替换为固定时钟
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var SystemClock Clock = systemClock{}

// IDGenerator returns a new primary key for sessions and results.
type IDGenerator func() string

func UUIDGenerator() string {
	return uuid.NewString()
}
