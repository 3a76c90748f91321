package views

import "github.com/23CSBS271/focus-flow/domain"

// CategoryStats counts the tasks of one category.
type CategoryStats struct {
	Total     int
	Completed int
	Pending   int
}

// CategoryGroup is one section of the category view.
type CategoryGroup struct {
	Category string
	Tasks    []domain.Task
	Stats    CategoryStats
}

// ByCategory groups tasks into the known categories in display order. Tasks
// with a missing or unrecognised category are grouped under other. Every
// known category is returned, even when empty.
func ByCategory(tasks []domain.Task) []CategoryGroup {
	idx := make(map[string]int, len(domain.Categories))
	groups := make([]CategoryGroup, len(domain.Categories))
	for i, c := range domain.Categories {
		idx[c] = i
		groups[i] = CategoryGroup{Category: c}
	}
	for _, t := range tasks {
		g := &groups[idx[domain.NormalizeCategory(t.Category)]]
		g.Tasks = append(g.Tasks, t)
		g.Stats.Total++
		if t.Completed() {
			g.Stats.Completed++
		}
	}
	for i := range groups {
		groups[i].Stats.Pending = groups[i].Stats.Total - groups[i].Stats.Completed
	}
	return groups
}

// CategoryStyle returns the style key used to decorate a category.
func CategoryStyle(category string) string {
	return domain.NormalizeCategory(category)
}
