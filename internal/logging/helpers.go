// Copyright 2025 Antti Kivi
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"context"
	"log/slog"
)

// Trace logs msg at [LevelTrace] on the default logger.
func Trace(ctx context.Context, msg string, args ...any) {
	slog.Log(ctx, LevelTrace.Level(), msg, args...)
}

// Debug logs msg at [LevelDebug] on the default logger.
func Debug(ctx context.Context, msg string, args ...any) {
	slog.Log(ctx, LevelDebug.Level(), msg, args...)
}

// Info logs msg at [LevelInfo] on the default logger.
func Info(ctx context.Context, msg string, args ...any) {
	slog.Log(ctx, LevelInfo.Level(), msg, args...)
}

// Warn logs msg at [LevelWarn] on the default logger.
func Warn(ctx context.Context, msg string, args ...any) {
	slog.Log(ctx, LevelWarn.Level(), msg, args...)
}

// Error logs msg at [LevelError] on the default logger.
func Error(ctx context.Context, msg string, args ...any) {
	slog.Log(ctx, LevelError.Level(), msg, args...)
}
