/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger Logger interface
type Logger interface {
	Printf(format string, v ...interface{})
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// NewZapLogger adapts a zap logger to Logger.
func NewZapLogger(logger *zap.Logger) Logger {
	return &zapLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// DefaultLogger returns a console zap logger at the given level ("debug", "info", ...).
// An unknown level falls back to info.
func DefaultLogger(level ...string) Logger {
	lvl := zapcore.InfoLevel
	if len(level) > 0 && level[0] != "" {
		if parsed, err := zapcore.ParseLevel(level[0]); err == nil {
			lvl = parsed
		}
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return &zapLogger{sugar: zap.NewNop().Sugar()}
	}
	return NewZapLogger(logger)
}

func NewLogger(custom Logger) Logger {
	if custom != nil {
		return custom
	}
	return DefaultLogger()
}
