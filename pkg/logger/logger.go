package logger

import (
	"fmt"

	"github.com/GlebRadaev/bountyhub/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName = "bountyhub"
	timeLayout  = "15:04:05 02-01-2006"
)

// InitLogger replaces the global zap logger. Every package logs through zap.L().
func InitLogger(conf *config.Config) error {
	lvl, err := zapcore.ParseLevel(conf.LogLvl)
	if err != nil {
		return fmt.Errorf("unsupported log lvl %q: %w", conf.LogLvl, err)
	}
	if lvl > zapcore.ErrorLevel {
		return fmt.Errorf("unsupported log lvl: %s", conf.LogLvl)
	}

	enc, err := encoderConfig(conf.LogFormat)
	if err != nil {
		return err
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         conf.LogFormat,
		EncoderConfig:    enc,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if zc.Encoding == "" {
		zc.Encoding = "console"
	}

	l, err := zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return fmt.Errorf("unable to create zap logger, error: %w", err)
	}
	zap.ReplaceGlobals(l.Named(serviceName))

	return nil
}

func encoderConfig(format string) (zapcore.EncoderConfig, error) {
	switch format {
	case "", "console":
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		enc.EncodeDuration = zapcore.MillisDurationEncoder
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return enc, nil
	case "json":
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		enc.EncodeDuration = zapcore.MillisDurationEncoder
		return enc, nil
	default:
		return zapcore.EncoderConfig{}, fmt.Errorf("unsupported log format: %s", format)
	}
}
