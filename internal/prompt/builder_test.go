package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toktokhan/chatbot-engine/internal/fewshot"
	"github.com/toktokhan/chatbot-engine/internal/intent"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

func TestBuilder_BlockOrder(t *testing.T) {
	b := NewBuilder(fewshot.NewDefaultRegistry())
	out := b.Build("React 개발 가능한가요?", intent.CategoryTech, "## 회사 정보\n**소개**", nil)

	markers := []string{
		"당신은 똑똑한개발자의 전문 AI 상담원입니다.",
		"예시 1:\n질문: \"React 개발 가능한가요?\"",
		"예시 2:\n질문: \"백엔드 개발은 어떤 기술을 사용하나요?\"",
		"# 답변 가이드라인",
		"# 📝 마크다운 포맷팅 규칙 (중요!)",
		"# ⚠️ 중요한 답변 규칙",
		"# 예시 - 정보가 없는 경우:",
		"# 현재 검색된 회사 정보\n## 회사 정보\n**소개**",
		"# 사용자 질문\nReact 개발 가능한가요?",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(out, m)
		require.GreaterOrEqual(t, idx, 0, "missing block: %s", m)
		assert.Greater(t, idx, last, "block out of order: %s", m)
		last = idx
	}

	assert.True(t, strings.HasSuffix(out, "\n\n답변:"))
	assert.NotContains(t, out, "예시 3:")
	assert.NotContains(t, out, "# 답변에 포함할 관련 블로그")
}

func TestBuilder_RelatedBlogSection(t *testing.T) {
	b := NewBuilder(fewshot.NewDefaultRegistry())
	related := []storage.Link{
		{Title: "Django 성능 튜닝기", URL: "https://blog.example.com/django"},
		{Title: "React 상태 관리", URL: "https://blog.example.com/react"},
	}

	out := b.Build("질문", intent.CategoryProject, "", related)

	assert.True(t, strings.HasSuffix(out,
		"답변:\n\n# 답변에 포함할 관련 블로그\n"+
			"- [Django 성능 튜닝기](https://blog.example.com/django)\n"+
			"- [React 상태 관리](https://blog.example.com/react)\n"))
}

func TestBuilder_UsesRegistryExamples(t *testing.T) {
	registry := fewshot.NewRegistry()
	require.NoError(t, registry.Add(intent.CategoryGeneral, fewshot.Example{Question: "영업시간은?", Answer: "평일 9시-18시"}))
	b := NewBuilder(registry)

	out := b.Build("질문", intent.CategoryGeneral, "", nil)
	assert.Contains(t, out, "\n예시 1:\n질문: \"영업시간은?\"\n답변: 평일 9시-18시\n\n")
	assert.NotContains(t, out, "예시 2:")
}
