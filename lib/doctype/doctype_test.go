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

package doctype

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zoneStub returns canned text keyed by the cropped zone's dimensions.
// Zones that differ in size on the same page can therefore carry
// different text, which is how the classifiers see a real page.
type zoneStub struct {
	texts map[[2]int]string
}

func (s zoneStub) Recognize(_ context.Context, img image.Image, _ []string) (string, error) {
	b := img.Bounds()
	return s.texts[[2]int{b.Dx(), b.Dy()}], nil
}

// Page geometry used throughout: 850x1100 letter portrait. Derived zone
// dimensions for that page size.
var (
	letterPage = image.NewGray(image.Rect(0, 0, 850, 1100))

	zoneHeader15 = [2]int{850, 165}
	zoneHeader10 = [2]int{850, 110}
	zoneTopRight = [2]int{255, 165}
	zoneTopLeft  = [2]int{340, 275}
	zoneCenter   = [2]int{425, 440}
	zoneContent  = [2]int{850, 440}
)

func TestClassifyCRAPage_NoticeOfAssessment(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneHeader15: "canada revenue agency\nnotice of assessment",
	}}

	doc, ok := ClassifyCRAPage(context.Background(), engine, letterPage)
	require.True(t, ok)
	assert.Equal(t, "notice_of_assessment", doc.Type)
	assert.Equal(t, "cra", doc.Issuer)
	assert.Empty(t, doc.FormNumber)
	// One issuer keyword (0.5) blended with a one-pattern category match
	// (0.65): 0.5*0.4 + 0.65*0.6.
	assert.InDelta(t, 0.59, doc.Confidence, 1e-9)
	assert.NotEmpty(t, doc.MatchedPatterns)
}

func TestClassifyCRAPage_FrenchGSTCredit(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneHeader15: "agence du revenu du canada",
		zoneCenter:   "crédit pour la tps/tvh",
	}}

	doc, ok := ClassifyCRAPage(context.Background(), engine, letterPage)
	require.True(t, ok)
	assert.Equal(t, "gst_hst_credit", doc.Type)
}

func TestClassifyCRAPage_FormNumberFromTopRight(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneHeader15: "canada revenue agency",
		zoneTopRight: "rc151 e",
	}}

	doc, ok := ClassifyCRAPage(context.Background(), engine, letterPage)
	require.True(t, ok)
	assert.Equal(t, "RC151", doc.FormNumber)
}

func TestClassifyCRAPage_UnknownCategory(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneHeader15: "canada revenue agency",
	}}

	doc, ok := ClassifyCRAPage(context.Background(), engine, letterPage)
	require.True(t, ok)
	assert.Equal(t, UnknownCRAType, doc.Type)
	// Issuer evidence alone: 0.5*0.4.
	assert.InDelta(t, 0.2, doc.Confidence, 1e-9)
}

func TestClassifyCRAPage_NotCRA(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneHeader15: "hydro-québec statement",
	}}

	_, ok := ClassifyCRAPage(context.Background(), engine, letterPage)
	assert.False(t, ok)
}

func TestDetectCRA_NoDocuments(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{}}

	result := DetectCRA(context.Background(), engine, []image.Image{letterPage, letterPage})
	assert.Empty(t, result.Documents)
	assert.Equal(t, 2, result.TotalPages)
	assert.InDelta(t, NoCRAConfidence, result.Confidence, 1e-9)
}

func TestDetectCRA_SkipsNonCRAPages(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneHeader15: "revenue canada statement of account",
	}}
	blank := zoneStub{texts: map[[2]int]string{}}

	// Both pages share zone geometry, so drive them separately.
	cra := DetectCRA(context.Background(), engine, []image.Image{letterPage})
	none := DetectCRA(context.Background(), blank, []image.Image{letterPage})

	require.Len(t, cra.Documents, 1)
	assert.Equal(t, 1, cra.Documents[0].Page)
	assert.Equal(t, "statement_of_account", cra.Documents[0].Type)
	assert.Empty(t, none.Documents)
}

func TestClassifyTaxFormPage_DirectCodeMatch(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneTopRight: "t4 2024",
	}}

	finding, ok := ClassifyTaxFormPage(context.Background(), engine, letterPage)
	require.True(t, ok)
	assert.Equal(t, "T4", finding.FormType)
	assert.Equal(t, "employer", finding.Issuer)
	assert.Equal(t, 2024, finding.Year)
	// Direct code read (0.90) plus the year boost (+0.05), capped at 0.95.
	assert.InDelta(t, 0.95, finding.Confidence, 1e-9)
}

func TestClassifyTaxFormPage_ContentFallback(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneContent: "statement of remuneration paid\nemployment income\nincome tax deducted",
	}}

	finding, ok := ClassifyTaxFormPage(context.Background(), engine, letterPage)
	require.True(t, ok)
	assert.Equal(t, "T4", finding.FormType)
	assert.Zero(t, finding.Year)
	// Title pattern (+2) plus two keywords: 0.3 + 4*0.15.
	assert.InDelta(t, 0.90, finding.Confidence, 1e-9)
	assert.Contains(t, finding.MatchedKeywords, "employment income")
}

func TestClassifyTaxFormPage_QuebecReleve(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneTopRight: "relevé 1\nrl-1",
	}}

	finding, ok := ClassifyTaxFormPage(context.Background(), engine, letterPage)
	require.True(t, ok)
	assert.Equal(t, "RL-1", finding.FormType)
	assert.Equal(t, "employer_quebec", finding.Issuer)
}

func TestClassifyTaxFormPage_TieBreaksByTableOrder(t *testing.T) {
	// "quebec" is a keyword of both RL-1 and RL-2; the earlier table
	// entry must win the tie.
	engine := zoneStub{texts: map[[2]int]string{
		zoneContent: "quebec",
	}}

	finding, ok := ClassifyTaxFormPage(context.Background(), engine, letterPage)
	require.True(t, ok)
	assert.Equal(t, "RL-1", finding.FormType)
}

func TestClassifyTaxFormPage_NoForm(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneContent: "monthly bank statement",
	}}

	_, ok := ClassifyTaxFormPage(context.Background(), engine, letterPage)
	assert.False(t, ok)
}

func TestDetectTaxForms_NoForms(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{}}

	result := DetectTaxForms(context.Background(), engine, []image.Image{letterPage})
	assert.Empty(t, result.TaxForms)
	assert.InDelta(t, NoFormsConfidence, result.Confidence, 1e-9)
}

func TestDetectTaxForms_PageNumbering(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{
		zoneTopRight: "t5",
	}}

	result := DetectTaxForms(context.Background(), engine, []image.Image{letterPage, letterPage})
	require.Len(t, result.TaxForms, 2)
	assert.Equal(t, 1, result.TaxForms[0].Page)
	assert.Equal(t, 2, result.TaxForms[1].Page)
	assert.Equal(t, "T5", result.TaxForms[0].FormType)
}
