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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunTool_Success(t *testing.T) {
	result := runTool(context.Background(), zaptest.NewLogger(t), "test_tool",
		func(ctx context.Context) (toolOutput, error) {
			return toolOutput{
				data:       map[string]any{"value": 42},
				hints:      map[string]any{"message": "found it"},
				confidence: 0.85,
			}, nil
		})

	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, 42, result.Data["value"])
	assert.Equal(t, "found it", result.Hints["message"])
	assert.GreaterOrEqual(t, result.ExecutionTimeMs, int64(0))
}

func TestRunTool_Error(t *testing.T) {
	result := runTool(context.Background(), zaptest.NewLogger(t), "test_tool",
		func(ctx context.Context) (toolOutput, error) {
			return toolOutput{}, errors.New("document has no pages")
		})

	require.False(t, result.Success)
	assert.Equal(t, "document has no pages", result.Error)
	assert.Zero(t, result.Confidence)
	assert.Nil(t, result.Data)
}

func TestRunTool_PanicRecovered(t *testing.T) {
	result := runTool(context.Background(), zaptest.NewLogger(t), "test_tool",
		func(ctx context.Context) (toolOutput, error) {
			panic("index out of range")
		})

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "internal error")
	assert.Contains(t, result.Error, "index out of range")
	assert.Zero(t, result.Confidence)
}
