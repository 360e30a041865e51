package logger

import (
	"fmt"
	"sync"

	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"

	"github.com/mosheduminer/lmql/common/config"
)

var (
	Logger      glog.Logger
	initLogOnce sync.Once
)

// init initializes the logger automatically when the package is imported
func init() {
	initLogger()
}

// initLogger initializes the go-utils logger
func initLogger() {
	initLogOnce.Do(func() {
		var err error
		level := glog.LevelInfo
		if config.DebugEnabled {
			level = glog.LevelDebug
		}

		Logger, err = glog.NewConsoleWithName("lmql", level)
		if err != nil {
			panic(fmt.Sprintf("failed to create logger: %+v", err))
		}
	})
}

// StreamLogger returns a child logger annotated with the stream id so all
// log lines produced by one stream's decode loop and watchdog correlate.
func StreamLogger(streamID string) glog.Logger {
	return Logger.With(zap.String("stream_id", streamID))
}
