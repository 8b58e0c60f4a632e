package logflags

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(enabled bool, name string) Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:      "timestamp",
		LevelKey:     "level",
		NameKey:      "logger",
		MessageKey:   "message",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
		EncodeName:   zapcore.FullNameEncoder,
	}
	if colored {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.WarnLevel
	if enabled {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(logOut)),
		level,
	)

	return zap.New(core, zap.AddCaller()).Named(name).Sugar()
}

func HTTPLogger() Logger {
	return newLogger(http, "http")
}

func GRPCLogger() Logger {
	return newLogger(grpc, "grpc")
}

func DumpLogger() Logger {
	return newLogger(dump, "dump")
}

func ReaderLogger() Logger {
	return newLogger(reader, "reader")
}
