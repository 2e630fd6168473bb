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

// Config holds the hints node configuration.
type Config struct {
	// ApiUrl is the listen address, e.g. "http://localhost:4300".
	ApiUrl string `json:"api_url"`

	// TesseractLanguages is the OCR language set, e.g. ["eng", "fra"].
	// Empty keeps the default English/French set.
	TesseractLanguages []string `json:"tesseract_languages,omitempty"`

	// DisableOCR runs the node without an OCR engine. Tools that read
	// page zones degrade to "no text evidence".
	DisableOCR bool `json:"disable_ocr,omitempty"`

	// MaxConcurrentRequests caps simultaneous tool executions.
	// 0 means the number of CPUs.
	MaxConcurrentRequests int `json:"max_concurrent_requests,omitempty"`

	// MaxQueueSize caps requests waiting for an execution slot.
	// 0 means 4x MaxConcurrentRequests.
	MaxQueueSize int `json:"max_queue_size,omitempty"`

	// RequestTimeout bounds the wait for an execution slot, as a
	// duration string. "" or "0" disables the timeout.
	RequestTimeout string `json:"request_timeout,omitempty"`
}
