package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/23CSBS271/focus-flow/domain"
	"github.com/23CSBS271/focus-flow/views"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Strikethrough(true)
	todayStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	priorityColors = map[domain.Priority]lipgloss.Color{
		domain.PriorityLow:    lipgloss.Color("114"),
		domain.PriorityMedium: lipgloss.Color("75"),
		domain.PriorityHigh:   lipgloss.Color("214"),
		domain.PriorityUrgent: lipgloss.Color("203"),
	}
	categoryColors = map[string]lipgloss.Color{
		domain.CategoryPersonal: lipgloss.Color("141"),
		domain.CategoryWork:     lipgloss.Color("75"),
		domain.CategoryHealth:   lipgloss.Color("114"),
		domain.CategoryShopping: lipgloss.Color("220"),
		domain.CategoryOther:    lipgloss.Color("252"),
	}
)

func priorityBadge(p domain.Priority) string {
	c, ok := priorityColors[p]
	if !ok {
		c = lipgloss.Color("252")
	}
	return lipgloss.NewStyle().Foreground(c).Render("[" + string(p) + "]")
}

func categoryBadge(category string) string {
	key := views.CategoryStyle(category)
	return lipgloss.NewStyle().Foreground(categoryColors[key]).Render(key)
}

func dueLabel(t domain.Task, now time.Time) string {
	if t.DueDate == nil {
		return mutedStyle.Render("no due date")
	}
	due := t.DueDate.In(now.Location())
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	dy, dm, dd := due.Date()
	day := time.Date(dy, dm, dd, 0, 0, 0, 0, now.Location())
	label := due.Format("Mon Jan 2 15:04")
	switch {
	case day.Equal(today):
		return todayStyle.Render("today " + due.Format("15:04"))
	case day.Before(today) && !t.Completed():
		return overdueStyle.Render(label)
	default:
		return label
	}
}

// taskLine renders one task as "id [priority] title  category  due".
func taskLine(t domain.Task, now time.Time) string {
	title := t.Title
	if t.Completed() {
		title = doneStyle.Render(title)
	}
	parts := []string{
		mutedStyle.Render(shortID(t.ID)),
		priorityBadge(t.Priority),
		title,
		categoryBadge(t.Category),
		dueLabel(t, now),
	}
	if len(t.Tags) > 0 {
		parts = append(parts, mutedStyle.Render("#"+strings.Join(t.Tags, " #")))
	}
	return strings.Join(parts, "  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderView(w io.Writer, v any, now time.Time) error {
	switch view := v.(type) {
	case views.DailyView:
		renderDaily(w, view, now)
	case views.WeeklyView:
		renderWeekly(w, view, now)
	case views.MonthGrid:
		renderMonth(w, view)
	case views.Board:
		renderKanban(w, view, now)
	case []views.CategoryGroup:
		renderCategories(w, view, now)
	default:
		return fmt.Errorf("cannot render %T", v)
	}
	return nil
}

func renderDaily(w io.Writer, v views.DailyView, now time.Time) {
	fmt.Fprintln(w, headerStyle.Render("Agenda for "+now.Format("Monday, January 2")))
	fmt.Fprintf(w, "%d to do, %d in progress, %d completed\n\n", v.Counts.Todo, v.Counts.InProgress, v.Counts.Completed)
	sections := v.NonEmpty()
	if len(sections) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nothing scheduled."))
		return
	}
	for _, b := range sections {
		title := b.Title
		if b.Key == views.BucketOverdue {
			title = overdueStyle.Render(title)
		}
		fmt.Fprintf(w, "%s (%d)\n", sectionStyle.Render(title), len(b.Tasks))
		for _, t := range b.Tasks {
			fmt.Fprintln(w, "  "+taskLine(t, now))
		}
		fmt.Fprintln(w)
	}
}

func renderWeekly(w io.Writer, v views.WeeklyView, now time.Time) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Week of %s to %s",
		v.Start.Format("Jan 2"), v.End.Format("Jan 2"))))
	fmt.Fprintf(w, "%d/%d completed (%d%%)\n\n", v.Completed, v.Total, v.CompletionRate)
	for _, d := range v.Days {
		label := d.Date.Format("Mon 02")
		if d.IsToday {
			label = todayStyle.Render(label)
		}
		fmt.Fprintf(w, "%s\n", sectionStyle.Render(label))
		for _, t := range d.Preview {
			fmt.Fprintln(w, "  "+taskLine(t, now))
		}
		if d.More > 0 {
			fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  +%d more", d.More)))
		}
	}
	fmt.Fprintln(w)
	var prio []string
	for _, p := range domain.Priorities {
		prio = append(prio, fmt.Sprintf("%s %d", priorityBadge(p), v.ByPriority[p]))
	}
	fmt.Fprintln(w, strings.Join(prio, "  "))
	var status []string
	for _, s := range domain.Statuses {
		status = append(status, fmt.Sprintf("%s %d", s, v.ByStatus[s]))
	}
	fmt.Fprintln(w, strings.Join(status, "  "))
}

const cellWidth = 14

func renderMonth(w io.Writer, g views.MonthGrid) {
	fmt.Fprintln(w, headerStyle.Render(g.Month.Format("January 2006")))
	fmt.Fprintf(w, "%d tasks, %d completed, %d in progress, %d overdue\n\n",
		g.Stats.Total, g.Stats.Completed, g.Stats.InProgress, g.Stats.Overdue)

	cell := lipgloss.NewStyle().Width(cellWidth)
	var head []string
	for _, c := range g.Weeks[0] {
		head = append(head, cell.Render(c.Date.Format("Mon")))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, head...))

	for _, week := range g.Weeks {
		cols := make([]string, 0, len(week))
		for _, c := range week {
			lines := []string{fmt.Sprintf("%2d", c.Date.Day())}
			for _, t := range c.Preview {
				lines = append(lines, truncate(t.Title, cellWidth-2))
			}
			if c.More > 0 {
				lines = append(lines, fmt.Sprintf("+%d more", c.More))
			}
			style := cell
			switch {
			case c.IsToday:
				style = style.Inherit(todayStyle)
			case !c.InMonth:
				style = style.Inherit(mutedStyle)
			}
			cols = append(cols, style.Render(strings.Join(lines, "\n")))
		}
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}
}

func renderKanban(w io.Writer, b views.Board, now time.Time) {
	for _, col := range b.Columns {
		fmt.Fprintf(w, "%s (%d)\n", sectionStyle.Render(col.Title), len(col.Tasks))
		for _, t := range col.Tasks {
			fmt.Fprintln(w, "  "+taskLine(t, now))
		}
		fmt.Fprintln(w)
	}
}

func renderCategories(w io.Writer, groups []views.CategoryGroup, now time.Time) {
	for _, g := range groups {
		fmt.Fprintf(w, "%s  %d total, %d completed, %d pending\n",
			categoryBadge(g.Category), g.Stats.Total, g.Stats.Completed, g.Stats.Pending)
		for _, t := range g.Tasks {
			fmt.Fprintln(w, "  "+taskLine(t, now))
		}
	}
}

func renderProfile(w io.Writer, p domain.UserProfile) {
	fmt.Fprintln(w, headerStyle.Render(p.Name))
	if p.Email != "" {
		fmt.Fprintln(w, p.Email)
	}
	if p.Avatar != "" {
		fmt.Fprintln(w, mutedStyle.Render(p.Avatar))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
