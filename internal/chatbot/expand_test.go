package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandQuery(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"no trigger", "  안녕하세요  ", "안녕하세요"},
		{"project", "프로젝트 알려줘", "프로젝트 알려줘 프로젝트 포트폴리오 개발 작업 업무"},
		{"tech", "기술 스택은?", "기술 스택은? 기술 스택 언어 프레임워크 도구"},
		{
			"all groups in order",
			"회사 기술 프로젝트",
			"회사 기술 프로젝트 프로젝트 포트폴리오 개발 작업 업무 기술 스택 언어 프레임워크 도구 회사 기업 조직 팀",
		},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandQuery(tt.question))
		})
	}
}
