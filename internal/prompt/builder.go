// Package prompt assembles the single user message sent to the completion
// model: persona, category examples, answering rules, retrieved context and
// the question itself.
package prompt

import (
	"fmt"
	"strings"

	"github.com/toktokhan/chatbot-engine/internal/fewshot"
	"github.com/toktokhan/chatbot-engine/internal/intent"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// Builder renders prompts using examples from a registry.
type Builder struct {
	examples *fewshot.Registry
}

// NewBuilder creates a prompt builder.
func NewBuilder(examples *fewshot.Registry) *Builder {
	return &Builder{examples: examples}
}

// Build renders the prompt. Related links, when present, are appended as a
// trailing blog section.
func (b *Builder) Build(question string, category intent.Category, contextText string, related []storage.Link) string {
	var sb strings.Builder

	sb.WriteString(persona)
	sb.WriteString("\n\n")
	sb.WriteString(renderExamples(b.examples.ExamplesFor(category)))
	sb.WriteString("\n\n")
	sb.WriteString(answerRules)
	sb.WriteString("# 현재 검색된 회사 정보\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\n# 사용자 질문\n")
	sb.WriteString(question)
	sb.WriteString("\n\n답변:")

	if len(related) > 0 {
		sb.WriteString("\n\n# 답변에 포함할 관련 블로그\n")
		for _, link := range related {
			fmt.Fprintf(&sb, "- [%s](%s)\n", link.Title, link.URL)
		}
	}

	return sb.String()
}

func renderExamples(examples []fewshot.Example) string {
	var sb strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&sb, "\n예시 %d:\n질문: \"%s\"\n답변: %s\n\n", i+1, ex.Question, ex.Answer)
	}
	return sb.String()
}
