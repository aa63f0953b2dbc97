package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once  sync.Once
	sugar *zap.SugaredLogger
)

// Get returns the process-wide sugared logger, building it on first use.
func Get() *zap.SugaredLogger {
	once.Do(func() {
		lg, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		sugar = lg.Sugar()
	})
	return sugar
}
