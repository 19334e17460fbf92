// Package intent classifies a chatbot question into one of a small set of
// categories using weighted keyword matching.
package intent

import "strings"

// Category is the resolved question type.
type Category string

const (
	CategoryCompany Category = "company"
	CategoryProject Category = "project"
	CategoryTech    Category = "tech"
	CategoryGeneral Category = "general"
)

// Categories lists every category in scoring order.
var Categories = []Category{CategoryCompany, CategoryProject, CategoryTech, CategoryGeneral}

// ParseCategory maps a raw string to a Category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Scores holds the accumulated score per category.
type Scores map[Category]float64

// Max returns the highest score.
func (s Scores) Max() float64 {
	var max float64
	for _, c := range Categories {
		if s[c] > max {
			max = s[c]
		}
	}
	return max
}

// Top returns the categories whose score equals the maximum, in scoring order.
func (s Scores) Top() []Category {
	max := s.Max()
	var top []Category
	for _, c := range Categories {
		if s[c] == max {
			top = append(top, c)
		}
	}
	return top
}

type weightedTerm struct {
	term   string
	weight float64
}

// Scorer assigns keyword and phrase scores to a question.
// Terms are summed in table order so that equal inputs always produce
// bit-identical floats, which the tie rules depend on.
type Scorer struct {
	keywords map[Category][]weightedTerm
	phrases  map[Category][]weightedTerm
}

// NewScorer creates a scorer with the built-in weight tables.
func NewScorer() *Scorer {
	return &Scorer{
		keywords: map[Category][]weightedTerm{
			CategoryCompany: {
				{"회사", 1.0}, {"기업", 1.0}, {"팀", 0.8}, {"조직", 0.8}, {"소개", 0.6},
				{"설립", 0.8}, {"직원", 0.7}, {"구성원", 0.7}, {"문화", 0.6},
			},
			CategoryProject: {
				{"프로젝트", 2.0}, {"포트폴리오", 1.8}, {"개발", 1.2}, {"진행", 1.0}, {"경험", 0.8},
				{"사례", 1.2}, {"구축", 1.3}, {"제작", 1.2}, {"완료", 1.0}, {"진행했던", 1.5},
				{"진행한", 1.5}, {"작업", 0.8}, {"업무", 0.8},
			},
			CategoryTech: {
				{"react", 2.0}, {"vue", 2.0}, {"angular", 2.0}, {"javascript", 1.8}, {"typescript", 1.8},
				{"python", 2.0}, {"django", 2.0}, {"fastapi", 1.8}, {"node", 1.8}, {"express", 1.8},
				{"spring", 1.8}, {"java", 1.8}, {"php", 1.8}, {"laravel", 1.8}, {"mysql", 1.5},
				{"postgresql", 1.5}, {"mongodb", 1.5}, {"redis", 1.5}, {"aws", 1.8}, {"docker", 1.8},
				{"kubernetes", 1.8},
				{"기술", 1.0}, {"스택", 1.2}, {"언어", 1.0}, {"프레임워크", 1.2}, {"데이터베이스", 1.0},
				{"클라우드", 1.0}, {"인프라", 1.0},
			},
		},
		phrases: map[Category][]weightedTerm{
			CategoryProject: {
				{"로 진행한", 1.5}, {"로 개발한", 1.5}, {"을 사용한", 1.2}, {"로 만든", 1.3},
				{"기술로", 1.0}, {"스택으로", 1.0}, {"프로젝트 중에", 1.8}, {"포트폴리오", 1.5},
				{"진행했던", 1.3}, {"개발했던", 1.3}, {"어떤 프로젝트", 1.5},
			},
			CategoryTech: {
				{"가능한가요", 1.5}, {"할 수 있나요", 1.5}, {"할 수 있어요", 1.5}, {"개발 가능", 1.5},
				{"기술 스택", 1.3}, {"사용하나요", 1.2}, {"경험이 있나요", 1.3}, {"경험이 있어요", 1.3},
				{"다룰 수 있나요", 1.4}, {"어떤 기술", 1.2}, {"어떤 언어", 1.2}, {"백엔드", 1.2},
				{"프론트엔드", 1.2},
			},
			CategoryCompany: {
				{"뭐하는 회사", 2.0}, {"어떤 회사", 1.5}, {"회사 소개", 1.8}, {"팀 구성", 1.5},
				{"회사 문화", 1.5}, {"조직 구성", 1.3},
			},
		},
	}
}

// Score lowercases the question and sums keyword weights, then phrase bonuses.
// Every category, including general, is present in the result.
func (s *Scorer) Score(question string) Scores {
	q := strings.ToLower(question)

	scores := Scores{}
	for _, c := range Categories {
		scores[c] = 0
	}

	for _, c := range Categories {
		for _, kw := range s.keywords[c] {
			if strings.Contains(q, kw.term) {
				scores[c] += kw.weight
			}
		}
	}
	for _, c := range []Category{CategoryProject, CategoryTech, CategoryCompany} {
		for _, p := range s.phrases[c] {
			if strings.Contains(q, p.term) {
				scores[c] += p.weight
			}
		}
	}
	return scores
}

// Classify scores and resolves a question in one step.
func (s *Scorer) Classify(question string) Category {
	return Resolve(s.Score(question), question)
}
