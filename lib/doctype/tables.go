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

import "regexp"

// craKeywords strongly indicate a Canada Revenue Agency issuer when they
// appear in the page header.
var craKeywords = []string{
	"canada revenue agency",
	"agence du revenu du canada",
	"revenue canada",
	"revenu canada",
	"cra-arc",
}

// DocumentPattern is one known CRA document category with the text
// patterns that identify it.
type DocumentPattern struct {
	Type     string
	Patterns []*regexp.Regexp
}

// documentPatterns is ordered; on a tied match score the earlier entry
// wins, keeping classification deterministic.
var documentPatterns = []DocumentPattern{
	{
		Type: "notice_of_assessment",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)notice\s+of\s+assessment`),
			regexp.MustCompile(`(?i)avis\s+de\s+cotisation`),
			regexp.MustCompile(`(?i)noa\b`),
			regexp.MustCompile(`(?i)\bT1\s+General`),
		},
	},
	{
		Type: "family_allowance",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)canada\s+child\s+benefit`),
			regexp.MustCompile(`(?i)allocation\s+canadienne\s+pour\s+enfants`),
			regexp.MustCompile(`(?i)\bRC151\b`),
			regexp.MustCompile(`(?i)CCB`),
		},
	},
	{
		Type: "gst_hst_credit",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)GST/HST\s+credit`),
			regexp.MustCompile(`(?i)cr[ée]dit\s+(?:pour\s+la\s+)?TPS/TVH`),
			regexp.MustCompile(`(?i)\bRC151\b`),
		},
	},
	{
		Type: "statement_of_account",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)statement\s+of\s+account`),
			regexp.MustCompile(`(?i)[ée]tat\s+de\s+compte`),
			regexp.MustCompile(`(?i)balance\s+owing`),
			regexp.MustCompile(`(?i)solde\s+(?:[àa]\s+payer|d[ûu])`),
		},
	},
	{
		Type: "tax_return",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)income\s+tax\s+(?:and\s+benefit\s+)?return`),
			regexp.MustCompile(`(?i)d[ée]claration\s+de\s+revenus?`),
			regexp.MustCompile(`(?i)T1\s+General`),
		},
	},
	{
		Type: "proof_of_income",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)option\s+C\s+print`),
			regexp.MustCompile(`(?i)proof\s+of\s+income`),
			regexp.MustCompile(`(?i)revenue\s+statement`),
		},
	},
}

// formNumberPatterns match CRA form numbers printed in the top-right
// corner of a page.
var formNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(T1)\b`),
	regexp.MustCompile(`(?i)\b(T4[A-Z]?)\b`),
	regexp.MustCompile(`(?i)\b(T5[A-Z]?)\b`),
	regexp.MustCompile(`(?i)\b(RC\d{3})\b`),
	regexp.MustCompile(`(?i)\b(T2202A?)\b`),
	regexp.MustCompile(`(?i)\b(RRSP)\b`),
}

// TaxForm describes one Canadian tax slip: its form code patterns, the
// content keywords that corroborate it, and who issues it.
type TaxForm struct {
	Code     string
	Codes    *regexp.Regexp
	Patterns []*regexp.Regexp
	Keywords []string
	Issuer   string
}

// taxForms is ordered; on a tied content score the earlier entry wins.
// Covers the federal T-series and the Quebec RL-series.
var taxForms = []TaxForm{
	{
		Code:  "T4",
		Codes: regexp.MustCompile(`(?i)\bT4\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bT4\b`),
			regexp.MustCompile(`(?i)Statement of Remuneration Paid`),
		},
		Keywords: []string{"employment income", "income tax deducted", "cpp", "ei"},
		Issuer:   "employer",
	},
	{
		Code:  "T4A",
		Codes: regexp.MustCompile(`(?i)\bT4A\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bT4A\b`),
			regexp.MustCompile(`(?i)Statement of Pension`),
		},
		Keywords: []string{"pension", "other income", "annuities"},
		Issuer:   "various",
	},
	{
		Code:  "T4E",
		Codes: regexp.MustCompile(`(?i)\bT4E\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bT4E\b`),
			regexp.MustCompile(`(?i)Statement of Employment Insurance`),
		},
		Keywords: []string{"employment insurance", "benefits paid", "ei"},
		Issuer:   "service_canada",
	},
	{
		Code:  "T5",
		Codes: regexp.MustCompile(`(?i)\bT5\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bT5\b`),
			regexp.MustCompile(`(?i)Statement of Investment Income`),
		},
		Keywords: []string{"interest", "dividends", "investment income"},
		Issuer:   "financial_institution",
	},
	{
		Code:  "T5007",
		Codes: regexp.MustCompile(`(?i)\bT5007\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bT5007\b`),
			regexp.MustCompile(`(?i)Statement of Benefits`),
		},
		Keywords: []string{"social assistance", "benefits", "workers' compensation"},
		Issuer:   "government",
	},
	{
		Code:  "T1",
		Codes: regexp.MustCompile(`(?i)\bT1\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bT1\s+General\b`),
			regexp.MustCompile(`(?i)Income Tax and Benefit Return`),
		},
		Keywords: []string{"tax return", "total income", "taxable income", "federal tax"},
		Issuer:   "taxpayer",
	},
	{
		Code:  "T2202",
		Codes: regexp.MustCompile(`(?i)\bT2202A?\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bT2202A?\b`),
			regexp.MustCompile(`(?i)Tuition and Enrolment Certificate`),
		},
		Keywords: []string{"tuition", "education", "eligible fees"},
		Issuer:   "educational_institution",
	},
	{
		Code:  "T3",
		Codes: regexp.MustCompile(`(?i)\bT3\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bT3\b`),
			regexp.MustCompile(`(?i)Statement of Trust Income`),
		},
		Keywords: []string{"trust", "allocations", "capital gains"},
		Issuer:   "trust",
	},
	{
		Code:  "RL-1",
		Codes: regexp.MustCompile(`(?i)\bRL-?1\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bRL-?1\b`),
			regexp.MustCompile(`(?i)Relev[ée]\s+1`),
		},
		Keywords: []string{"revenu", "emploi", "quebec"},
		Issuer:   "employer_quebec",
	},
	{
		Code:  "RL-2",
		Codes: regexp.MustCompile(`(?i)\bRL-?2\b`),
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bRL-?2\b`),
			regexp.MustCompile(`(?i)Relev[ée]\s+2`),
		},
		Keywords: []string{"revenus de placements", "intérêts", "quebec"},
		Issuer:   "financial_institution_quebec",
	},
}

// yearPattern matches plausible tax years.
var yearPattern = regexp.MustCompile(`\b(202[0-9]|203[0])\b`)
