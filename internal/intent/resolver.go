package intent

import (
	"sort"
	"strings"
)

var (
	specificTechs = []string{"react", "vue", "angular", "django", "python", "node", "java"}
	projectVerbs  = []string{"진행", "개발", "만든", "구축", "제작", "완료"}
)

type tieRule struct {
	tied    []Category
	resolve func(question string) Category
}

var tieRules = []tieRule{
	{[]Category{CategoryTech, CategoryProject}, resolveTechProject},
	{[]Category{CategoryCompany, CategoryProject}, func(string) Category { return CategoryProject }},
	{[]Category{CategoryCompany, CategoryTech}, func(string) Category { return CategoryTech }},
	{[]Category{CategoryCompany, CategoryProject, CategoryTech}, func(string) Category { return CategoryProject }},
}

// Resolve picks the final category from a score set.
// A zero maximum yields general. Ties go through the fixed rule table and
// otherwise fall back to the alphabetically first category.
func Resolve(scores Scores, question string) Category {
	if scores.Max() == 0 {
		return CategoryGeneral
	}

	top := scores.Top()
	if len(top) == 1 {
		return top[0]
	}

	q := strings.ToLower(question)
	for _, rule := range tieRules {
		if sameSet(top, rule.tied) {
			return rule.resolve(q)
		}
	}

	names := make([]string, len(top))
	for i, c := range top {
		names[i] = string(c)
	}
	sort.Strings(names)
	return Category(names[0])
}

// resolveTechProject prefers tech when at least two technology names appear.
func resolveTechProject(q string) Category {
	if countContained(q, specificTechs) >= 2 {
		return CategoryTech
	}
	if countContained(q, projectVerbs) > 0 {
		return CategoryProject
	}
	return CategoryProject
}

func countContained(q string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(q, t) {
			n++
		}
	}
	return n
}

func sameSet(a, b []Category) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[Category]bool, len(a))
	for _, c := range a {
		seen[c] = true
	}
	for _, c := range b {
		if !seen[c] {
			return false
		}
	}
	return true
}
