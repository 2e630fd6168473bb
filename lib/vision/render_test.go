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

package vision

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRender_MissingFile(t *testing.T) {
	r := NewRenderer(zap.NewNop())

	_, err := r.Render(context.Background(), "/does/not/exist.pdf", DefaultDPI)
	require.Error(t, err)

	var renderErr *RenderError
	assert.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "/does/not/exist.pdf", renderErr.Path)
}

func TestRender_ImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")

	img := image.NewGray(image.Rect(0, 0, 85, 54))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	r := NewRenderer(zap.NewNop())
	pages, err := r.Render(context.Background(), path, DefaultDPI)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 85, pages[0].Bounds().Dx())
}

func TestRender_CorruptImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	r := NewRenderer(zap.NewNop())
	_, err := r.Render(context.Background(), path, DefaultDPI)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
}

func TestRenderError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &RenderError{Path: "doc.pdf", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "doc.pdf")
}
