// Copyright (c) 2026 John Earle
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

package mailbox

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptBlocks  = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleBlocks   = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBreaks   = regexp.MustCompile(`(?i)<(?:br\s*/?|/?p(?:\s[^>]*)?|/?div(?:\s[^>]*)?)>`)
	remainingTags = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRuns     = regexp.MustCompile(`[ \t\r]+`)
	newlineRuns   = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// htmlToText reduces an HTML body to plain text: scripts, styles and
// comments removed, block-level breaks turned into newlines, all other
// tags dropped, entities decoded, whitespace collapsed.
func htmlToText(s string) string {
	s = scriptBlocks.ReplaceAllString(s, "")
	s = styleBlocks.ReplaceAllString(s, "")
	s = htmlComments.ReplaceAllString(s, "")
	s = blockBreaks.ReplaceAllString(s, "\n")
	s = remainingTags.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
