package logger

import "go.uber.org/zap"

var Log *zap.Logger

func Init() {
	l, _ := zap.NewProduction()
	Log = l
}

func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
