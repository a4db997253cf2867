package utils

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogOptions struct {
	Environment string
	Level       string
	File        string
}

var logger *zap.Logger

// Logger devolve o logger global; sem InitLogger, um logger de produção.
func Logger() *zap.Logger {
	if logger != nil {
		return logger
	}
	l, _ := zap.NewProduction()
	logger = l
	return logger
}

func InitLogger(opts LogOptions) (*zap.Logger, error) {
	l, err := NewLogger(opts)
	if err != nil {
		return nil, err
	}
	SetLogger(l)
	return l, nil
}

// SetLogger troca o logger global devolvido por Logger.
func SetLogger(l *zap.Logger) {
	logger = l
}

// NewLogger monta um logger JSON com timestamp e nível. Com File preenchido a saída vai
// também para um arquivo rotacionado.
func NewLogger(opts LogOptions) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if opts.Level != "" {
		if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	if opts.Environment == "dev" {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	consoleCore := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)
	if opts.File == "" {
		return zap.New(consoleCore, zap.AddCaller()), nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(rotator), lvl)
	return zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller()), nil
}
