package chatbot

import "strings"

type synonymGroup struct {
	trigger  string
	synonyms []string
}

// synonymGroups are checked in order against the trimmed question only.
var synonymGroups = []synonymGroup{
	{"프로젝트", []string{"프로젝트", "포트폴리오", "개발", "작업", "업무"}},
	{"기술", []string{"기술", "스택", "언어", "프레임워크", "도구"}},
	{"회사", []string{"회사", "기업", "조직", "팀"}},
}

// ExpandQuery appends the synonym group of every trigger found in the
// trimmed question. Appended text is not re-scanned.
func ExpandQuery(question string) string {
	trimmed := strings.TrimSpace(question)

	var b strings.Builder
	b.WriteString(trimmed)
	for _, g := range synonymGroups {
		if strings.Contains(trimmed, g.trigger) {
			b.WriteString(" ")
			b.WriteString(strings.Join(g.synonyms, " "))
		}
	}
	return b.String()
}
