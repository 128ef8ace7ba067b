// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package correlate

import (
	"strings"

	"golang.org/x/text/cases"
)

// keyFolder performs Unicode case folding, which subsumes ASCII lowercasing.
var keyFolder = cases.Fold()

// GroupKey canonicalizes a detection identity into its merge key: case-fold,
// trim, and collapse internal whitespace runs to a single space. Pure and
// total; never errors.
//
// An empty or whitespace-only identity yields the empty key, so unrelated
// empty-named detections merge into one group. Callers that cannot tolerate
// that must filter empty identities before correlating.
func GroupKey(name string) string {
	return strings.Join(strings.Fields(keyFolder.String(name)), " ")
}
