package agent

import "strings"

// confirmationTokens are the only user replies that confirm a pending draft.
// Matching is exact on the trimmed, lower-cased content; a sentence that merely
// contains one of these words does not confirm.
var confirmationTokens = map[string]struct{}{
	"확인":   {},
	"네":    {},
	"예":    {},
	"ㅇㅇ":   {},
	"좋아":   {},
	"좋습니다": {},
	"생성":   {},
	"만들어":  {},
	"등록":   {},
	"ㅇ":    {},
	"ok":   {},
	"yes":  {},
	"lgtm": {},
}

// requiredFieldLabels lists the always-required fields with their
// user-facing labels, in the order the clarifier reports them.
var requiredFieldLabels = []struct {
	missing func(IssueRecord) bool
	label   string
}{
	{func(r IssueRecord) bool { return r.Title == "" }, "이슈 제목"},
	{func(r IssueRecord) bool { return r.Description == "" }, "이슈 설명"},
	{func(r IssueRecord) bool { return r.Category == "" }, "이슈 유형 (bug/feature/improvement/question)"},
	{func(r IssueRecord) bool { return r.Domain == "" }, "영향 도메인"},
}

// bugFieldLabels is the extra tier of fields requested for bug reports. It
// widens the clarifier's question list only; it never gates readiness.
var bugFieldLabels = []struct {
	missing func(IssueRecord) bool
	label   string
}{
	{func(r IssueRecord) bool { return r.ReproductionSteps == "" }, "재현 단계"},
	{func(r IssueRecord) bool { return r.ExpectedBehavior == "" }, "기대 동작"},
	{func(r IssueRecord) bool { return r.ActualBehavior == "" }, "실제 동작"},
}

// IsConfirmation reports whether a user reply exactly matches a
// confirmation token after trimming and case-folding.
func IsConfirmation(content string) bool {
	_, ok := confirmationTokens[strings.ToLower(strings.TrimSpace(content))]
	return ok
}

// Classify determines the conversation phase from the accumulated record, the
// pending draft, and the most recent turn. It is a pure function: no backend
// call, deterministic, and re-evaluated every run.
//
// Confirmed requires an existing draft plus an exact confirmation token from
// the user. Ready requires title, description, category and domain. Everything
// else is needs_info.
func Classify(record IssueRecord, draft *Draft, last *Turn) Phase {
	if draft != nil && draft.Title != "" && draft.Body != "" &&
		last != nil && last.Role == RoleUser && IsConfirmation(last.Content) {
		return PhaseConfirmed
	}

	for _, f := range requiredFieldLabels {
		if f.missing(record) {
			return PhaseNeedsInfo
		}
	}
	return PhaseReady
}

// MissingFields returns the labels of fields still needed from the user. Bug
// reports additionally list reproduction steps and expected/actual behavior.
func MissingFields(record IssueRecord) []string {
	var missing []string
	for _, f := range requiredFieldLabels {
		if f.missing(record) {
			missing = append(missing, f.label)
		}
	}
	if record.Category == CategoryBug {
		for _, f := range bugFieldLabels {
			if f.missing(record) {
				missing = append(missing, f.label)
			}
		}
	}
	return missing
}
