// Copyright 2025 Chitragupta Authors
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

package classifier

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is lazily initialized on first use: tiktoken's BPE
// load is non-trivial, and most processes classify far more inputs
// than the one-time cost of building the encoding.
var (
	tokenEncodingOnce sync.Once
	tokenEncoding     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	tokenEncodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tokenEncoding = enc
		}
	})
	return tokenEncoding
}

// countTokens returns text's token count under the cl100k_base
// encoding, falling back to a word-count proxy if the encoding failed
// to load (tiktoken-go ships its BPE ranks as embedded data, so this
// only happens under a broken build).
func countTokens(text string) int {
	enc := encoding()
	if enc == nil {
		return len(strings.Fields(text))
	}
	return len(enc.Encode(text, nil, nil))
}
