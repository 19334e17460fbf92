package fewshot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toktokhan/chatbot-engine/internal/intent"
)

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	company := r.ExamplesFor(intent.CategoryCompany)
	require.Len(t, company, 2)
	assert.Equal(t, "이 회사는 뭐하는 회사인가요?", company[0].Question)
	assert.Equal(t, "팀 구성은 어떻게 되나요?", company[1].Question)

	general := r.ExamplesFor(intent.CategoryGeneral)
	require.Len(t, general, 1)
	assert.Equal(t, "견적 문의는 어떻게 하나요?", general[0].Question)
	assert.Contains(t, general[0].Answer, "contact@toktokhan.dev")
}

func TestRegistry_UnknownCategoryFallsBackToGeneral(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, r.ExamplesFor(intent.CategoryGeneral), r.ExamplesFor(intent.Category("pricing")))
}

func TestRegistry_Add(t *testing.T) {
	r := NewDefaultRegistry()
	aiExample := Example{Question: "AI 개발 경험이 있나요?", Answer: "네! AI/ML 분야에서 다양한 프로젝트 경험을 보유하고 있습니다."}

	require.NoError(t, r.Add(intent.CategoryTech, aiExample, aiExample))
	assert.Equal(t, 4, r.Count(intent.CategoryTech))

	// only the first two reach the prompt
	tech := r.ExamplesFor(intent.CategoryTech)
	require.Len(t, tech, 2)
	assert.Equal(t, "React 개발 가능한가요?", tech[0].Question)

	err := r.Add(intent.Category("pricing"), aiExample)
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Zero(t, r.Count(intent.Category("pricing")))
}

func TestRegistry_AddToEmptyCategory(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.ExamplesFor(intent.CategoryProject))

	require.NoError(t, r.Add(intent.CategoryProject, Example{Question: "q", Answer: "a"}))
	assert.Equal(t, []Example{{Question: "q", Answer: "a"}}, r.ExamplesFor(intent.CategoryProject))
}

func TestRegistry_ExamplesForReturnsCopy(t *testing.T) {
	r := NewDefaultRegistry()
	got := r.ExamplesFor(intent.CategoryProject)
	got[0].Question = "changed"

	assert.Equal(t, "어떤 프로젝트를 진행했나요?", r.ExamplesFor(intent.CategoryProject)[0].Question)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewDefaultRegistry()
	b := NewDefaultRegistry()
	require.NoError(t, a.Add(intent.CategoryGeneral, Example{Question: "q"}))

	assert.Equal(t, 2, a.Count(intent.CategoryGeneral))
	assert.Equal(t, 1, b.Count(intent.CategoryGeneral))
}

func TestRegistry_ConcurrentAddAndRead(t *testing.T) {
	r := NewDefaultRegistry()
	before := r.Count(intent.CategoryTech)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, r.Add(intent.CategoryTech, Example{Question: "Go 개발 가능한가요?", Answer: "네"}))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Len(t, r.ExamplesFor(intent.CategoryTech), PerPrompt)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, before+200, r.Count(intent.CategoryTech))
}
