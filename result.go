// Copyright 2025 Antfly, Inc.
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

package hints

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// ToolResult is the uniform envelope every tool returns. Confidence is
// the tool's own belief in its finding, in [0, 1]; a failed run reports
// zero confidence rather than omitting the field.
type ToolResult struct {
	Success         bool           `json:"success"`
	Data            map[string]any `json:"data,omitempty"`
	Error           string         `json:"error,omitempty"`
	Confidence      float64        `json:"confidence"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	Hints           map[string]any `json:"hints,omitempty"`
}

// toolOutput is what a tool implementation produces on success.
type toolOutput struct {
	data       map[string]any
	hints      map[string]any
	confidence float64
}

// runTool executes fn with timing, metrics, and failure containment. A
// returned error or a panic becomes a failed ToolResult; callers always
// get an envelope back.
func runTool(ctx context.Context, logger *zap.Logger, tool string, fn func(ctx context.Context) (toolOutput, error)) (result *ToolResult) {
	start := time.Now()
	RecordToolRequest(tool)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Tool panicked",
				zap.String("tool", tool),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			RecordToolFailure(tool)
			result = &ToolResult{
				Error:           fmt.Sprintf("internal error: %v", r),
				ExecutionTimeMs: time.Since(start).Milliseconds(),
			}
		}
	}()

	out, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		logger.Warn("Tool failed",
			zap.String("tool", tool),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		RecordToolFailure(tool)
		return &ToolResult{
			Error:           err.Error(),
			ExecutionTimeMs: elapsed.Milliseconds(),
		}
	}

	logger.Info("Tool completed",
		zap.String("tool", tool),
		zap.Duration("duration", elapsed),
		zap.Float64("confidence", out.confidence))

	return &ToolResult{
		Success:         true,
		Data:            out.data,
		Hints:           out.hints,
		Confidence:      out.confidence,
		ExecutionTimeMs: elapsed.Milliseconds(),
	}
}
