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

package classifier

import (
	"regexp"
	"strings"
)

// Extraction runs on subject and body joined with a newline so that
// end-of-subject acts as a phrase boundary for the (?m) anchors.

var companyPatterns = compileAll(
	`(?im)(?:thank you for|thanks for) (?:applying to|your application to|applying for) ([A-Z][a-zA-Z\s&]+?)(?:\.|,|!|\n|$)`,
	`(?im)your application (?:to|for) ([A-Z][a-zA-Z\s&]+?)(?: (?:has been|was))`,
	`(?im)application (?:to|for) ([A-Z][a-zA-Z\s&]+?)(?: (?:has been|was) received)`,
	`(?im)([A-Z][a-zA-Z\s&]+?) (?:has|have) received your application`,
	`(?im)([A-Z][a-zA-Z\s&]+?) - (?:Application|Job Application)`,
	`(?im)(?:position|role|opportunity) at ([A-Z][a-zA-Z\s&]+?)(?:\.|,|\n|$)`,
)

var positionPatterns = compileAll(
	`(?im)position:\s*([A-Z][a-zA-Z\s&/]+?)(?:\.|,|\n|$| at )`,
	`(?im)role:\s*([A-Z][a-zA-Z\s&/]+?)(?:\.|,|\n|$| at )`,
	`(?im)application (?:for|to) (?:the )?([A-Z][a-zA-Z\s&/]+?) (?:position|role|at)`,
	`(?m)([A-Z][a-zA-Z&/]+(?: [A-Za-z&/]+){0,4}) (?:position|role)(?:\.|,|\n|$)`,
	`(?im)job:\s*([A-Z][a-zA-Z\s&/]+?)(?:\.|,|\n|$)`,
)

// Generic words that are never a real position title.
var positionFiller = map[string]bool{
	"job": true, "position": true, "role": true,
	"application": true, "opportunity": true, "the": true,
}

var (
	techStackPattern = regexp.MustCompile(`(?i)(?:tech stack|stack|technolog(?:y|ies)|skills?)[:\s]+([^\n.]{3,500})`)
	articlePrefix    = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)

	contactEmailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	contactPhonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{8,18}\d`)
	nonDigits           = regexp.MustCompile(`\D`)

	salaryPattern = regexp.MustCompile(`[$€£₹]\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?\s?[kK]?(?:\s?(?:-|–|to)\s?[$€£₹]?\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?\s?[kK]?)?`)
)

// dateToken matches the textual and numeric date forms the grammar
// understands: "December 31, 2024", "2024-12-31", "12/31/2024".
const dateToken = `([A-Za-z]+ \d{1,2},? \d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`

var appliedDatePatterns = compileAll(
	`(?i)applied on `+dateToken,
	`(?i)application (?:was )?submitted on `+dateToken,
	`(?i)your application (?:of|from|on) `+dateToken,
)

var deadlinePatterns = compileAll(
	`(?i)by (\w+ \d{1,2},? \d{4})`,
	`(?i)deadline[:\s]+(\w+ \d{1,2},? \d{4})`,
	`(?i)due (?:by|on) (\w+ \d{1,2},? \d{4})`,
	`(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`,
)

// extractCompanyName finds the hiring company. Content patterns win;
// the sender domain is a fallback, and only when it is neither a
// personal provider nor a job board (those name the platform, never
// the employer).
func (c *Classifier) extractCompanyName(subject, body, sender string) string {
	text := subject + "\n" + body

	for _, p := range companyPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(articlePrefix.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		if len(name) < 2 || len(name) > 50 {
			continue
		}
		if c.denylist[strings.ToLower(name)] {
			continue
		}
		return name
	}

	domain := senderDomain(sender)
	if domain == "" {
		return ""
	}
	if hasAnyPrefix(domain, c.personal) || hasAnyPrefix(domain, c.jobBoards) {
		return ""
	}

	// "noreply@google.com" -> "Google"
	return capitalize(strings.SplitN(domain, ".", 2)[0])
}

// extractPosition finds the job title anchored on position/role phrases.
func extractPosition(subject, body string) string {
	text := subject + "\n" + body

	for _, p := range positionPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		pos := strings.TrimSpace(articlePrefix.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		if len(pos) < 3 || len(pos) > 100 {
			continue
		}
		if positionFiller[strings.ToLower(pos)] {
			continue
		}
		return pos
	}
	return ""
}

func extractTechStack(subject, body string) string {
	m := techStackPattern.FindStringSubmatch(subject + "\n" + body)
	if m == nil {
		return ""
	}
	stack := strings.TrimSpace(m[1])
	if len(stack) < 3 {
		return ""
	}
	return stack
}

// extractSourcePlatform maps a job-board sender domain to the platform
// name. Direct/company senders yield nothing.
func (c *Classifier) extractSourcePlatform(sender string) string {
	domain := senderDomain(sender)
	if domain == "" {
		return ""
	}
	for _, board := range c.jobBoards {
		if strings.HasPrefix(domain, board) {
			return capitalize(board)
		}
	}
	return ""
}

// extractAppliedDate looks for an explicit date phrase in the content
// and falls back to the message's own Date header.
func extractAppliedDate(subject, body, messageDate string) string {
	text := subject + "\n" + body
	for _, p := range appliedDatePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if normalized, ok := normalizeDate(m[1]); ok {
				return normalized
			}
		}
	}
	if messageDate != "" {
		if t, ok := parseMessageDate(messageDate); ok {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func extractContactEmail(body string) string {
	return contactEmailPattern.FindString(body)
}

// extractContactPhone returns the digits of the first plausible phone
// number, or nothing if no candidate normalises to 10-15 digits.
func extractContactPhone(body string) string {
	for _, candidate := range contactPhonePattern.FindAllString(body, -1) {
		digits := nonDigits.ReplaceAllString(candidate, "")
		if len(digits) >= 10 && len(digits) <= 15 {
			return digits
		}
	}
	return ""
}

func extractSalaryRange(body string) string {
	return strings.TrimSpace(salaryPattern.FindString(body))
}

// extractDeadline finds an explicit deadline and reformats it.
// Unparseable candidates are discarded silently.
func extractDeadline(body string) string {
	for _, p := range deadlinePatterns {
		if m := p.FindStringSubmatch(body); m != nil {
			if normalized, ok := normalizeDate(m[1]); ok {
				return normalized
			}
		}
	}
	return ""
}

func senderDomain(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return ""
	}
	return strings.ToLower(sender[at+1:])
}

func hasAnyPrefix(domain string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(domain, p) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
