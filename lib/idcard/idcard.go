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

// Package idcard classifies ID card pages as recto or verso. An aspect
// ratio gate decides whether a page is a card at all; four visual feature
// detectors then vote on the side.
package idcard

import (
	"image"
	"math"

	"github.com/madera-ai/hints/lib/vision"
)

// Card sides.
const (
	SideRecto   = "recto"
	SideVerso   = "verso"
	SideUnknown = "unknown"
)

// CardRatio is one known card format. Ratios are matched within a relative
// tolerance band.
type CardRatio struct {
	Type  string
	Ratio float64
}

// Config holds the card geometry table and side-scoring weights.
type Config struct {
	// Ratios are tried in order; the first match wins.
	Ratios []CardRatio
	// Tolerance is the relative aspect-ratio tolerance.
	Tolerance float64

	// HologramWeight scales hologram evidence into the recto score.
	HologramWeight float64
	// BarcodeWeight scales barcode evidence into the verso score.
	BarcodeWeight float64
	// StripeWeight scales magnetic-stripe evidence into the verso score.
	StripeWeight float64
	// CornerWeight scales rounded-corner evidence into both scores.
	CornerWeight float64

	// MinSideScore is the floor below which the side stays unknown.
	MinSideScore float64
	// MaxConfidence caps the reported side confidence.
	MaxConfidence float64
	// NotCardConfidence is reported when the aspect gate rejects a page.
	NotCardConfidence float64
	// NoCardsConfidence is the document confidence when no cards are found.
	NoCardsConfidence float64
}

// DefaultConfig returns the calibrated defaults. Ratios cover the ISO/IEC
// 7810 ID-1 format and the Quebec licence and health card variants.
func DefaultConfig() Config {
	return Config{
		Ratios: []CardRatio{
			{Type: "credit_card", Ratio: 1.586},
			{Type: "driving_license_qc", Ratio: 1.58},
			{Type: "health_card_qc", Ratio: 1.56},
		},
		Tolerance:         0.15,
		HologramWeight:    0.6,
		BarcodeWeight:     0.7,
		StripeWeight:      0.5,
		CornerWeight:      0.3,
		MinSideScore:      0.3,
		MaxConfidence:     0.95,
		NotCardConfidence: 0.1,
		NoCardsConfidence: 0.9,
	}
}

// Features records the raw feature evidence behind a side classification.
type Features struct {
	AspectRatio    float64 `json:"aspect_ratio"`
	RoundedCorners bool    `json:"rounded_corners"`
	Barcode        bool    `json:"barcode"`
	MagneticStripe bool    `json:"magnetic_stripe"`
	Hologram       bool    `json:"hologram"`
}

// SideFinding is the classification of a single page.
type SideFinding struct {
	Page       int      `json:"page"`
	IsCard     bool     `json:"is_card"`
	Side       string   `json:"side"`
	CardType   string   `json:"card_type"`
	Confidence float64  `json:"confidence"`
	Features   Features `json:"features"`
}

// Result is the document-level classification with greedy recto/verso
// groupings.
type Result struct {
	Cards      []SideFinding `json:"cards"`
	Groupings  [][]int       `json:"groupings"`
	TotalPages int           `json:"total_pages"`
	Confidence float64       `json:"confidence"`
}

// Classify gates a page on aspect ratio, then infers the card side from
// feature evidence. Pages whose ratio matches no known card format are
// rejected outright regardless of pixel content.
func Classify(img image.Image, cfg Config) SideFinding {
	bounds := img.Bounds()
	aspectRatio := float64(bounds.Dx()) / float64(bounds.Dy())

	cardType := ""
	for _, r := range cfg.Ratios {
		if math.Abs(aspectRatio-r.Ratio)/r.Ratio < cfg.Tolerance {
			cardType = r.Type
			break
		}
	}

	if cardType == "" {
		return SideFinding{
			IsCard:     false,
			Side:       SideUnknown,
			CardType:   "not_a_card",
			Confidence: cfg.NotCardConfidence,
			Features:   Features{AspectRatio: aspectRatio},
		}
	}

	g := vision.ToGray(img)

	hasRounded, roundedConf := detectRoundedCorners(g)
	hasBarcode, barcodeConf := detectBarcode(g)
	hasStripe, stripeConf := detectMagneticStripe(g)
	hasHologram, hologramConf := detectHologram(g)

	features := Features{
		AspectRatio:    aspectRatio,
		RoundedCorners: hasRounded,
		Barcode:        hasBarcode,
		MagneticStripe: hasStripe,
		Hologram:       hasHologram,
	}

	var rectoScore, versoScore float64

	// Recto carries the hologram and security features.
	if hasHologram {
		rectoScore += hologramConf * cfg.HologramWeight
	}

	// Verso carries the barcode and the magnetic stripe.
	if hasBarcode {
		versoScore += barcodeConf * cfg.BarcodeWeight
	}
	if hasStripe {
		versoScore += stripeConf * cfg.StripeWeight
	}

	// Both sides share the rounded-corner evidence.
	baseScore := roundedConf * cfg.CornerWeight
	rectoScore += baseScore
	versoScore += baseScore

	finding := SideFinding{
		IsCard:   true,
		CardType: cardType,
		Features: features,
	}

	switch {
	case math.Max(rectoScore, versoScore) < cfg.MinSideScore:
		finding.Side = SideUnknown
		finding.Confidence = cfg.MinSideScore
	case rectoScore > versoScore:
		finding.Side = SideRecto
		finding.Confidence = min(rectoScore, cfg.MaxConfidence)
	default:
		finding.Side = SideVerso
		finding.Confidence = min(versoScore, cfg.MaxConfidence)
	}

	return finding
}

// Detect classifies every page and groups consecutive recto/verso pairs.
func Detect(pages []image.Image, cfg Config) Result {
	result := Result{
		Cards:      []SideFinding{},
		TotalPages: len(pages),
	}

	var sum float64
	for i, page := range pages {
		finding := Classify(page, cfg)
		finding.Page = i + 1

		if finding.IsCard {
			result.Cards = append(result.Cards, finding)
			sum += finding.Confidence
		}
	}

	result.Groupings = PairSides(result.Cards)

	if len(result.Cards) > 0 {
		result.Confidence = sum / float64(len(result.Cards))
	} else {
		result.Confidence = cfg.NoCardsConfidence
	}

	return result
}

// PairSides groups card pages into recto/verso pairs with a single
// left-to-right greedy sweep. A card followed immediately by the opposite
// side forms a pair; everything else is a singleton. The sweep is an
// accepted approximation, not an optimal matching, and is idempotent over
// a fixed input.
func PairSides(cards []SideFinding) [][]int {
	groupings := [][]int{}

	i := 0
	for i < len(cards) {
		card := cards[i]

		if i+1 < len(cards) {
			next := cards[i+1]
			opposite := (card.Side == SideRecto && next.Side == SideVerso) ||
				(card.Side == SideVerso && next.Side == SideRecto)
			if opposite {
				groupings = append(groupings, []int{card.Page, next.Page})
				i += 2
				continue
			}
		}

		groupings = append(groupings, []int{card.Page})
		i++
	}

	return groupings
}
