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

// Package ocr abstracts text recognition behind a small Engine interface.
// OCR is best-effort evidence for the classifiers: failures degrade to
// empty text instead of propagating.
package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/madera-ai/hints/lib/vision"
)

// DefaultLanguages is the recognition language set used when callers pass
// none. English and French cover CRA and Revenu Québec documents.
var DefaultLanguages = []string{"eng", "fra"}

// Engine recognizes text in an image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, languages []string) (string, error)
}

// ZoneText crops a zone from a page image and recognizes its text,
// lowercased and trimmed. Recognition errors and empty zones both yield "":
// downstream matching treats missing text as "no evidence", never as a
// failure.
func ZoneText(ctx context.Context, engine Engine, img image.Image, zone vision.Zone, languages []string) string {
	if engine == nil {
		return ""
	}

	cropped := vision.Crop(img, zone)
	text, err := engine.Recognize(ctx, cropped, languages)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(text))
}
