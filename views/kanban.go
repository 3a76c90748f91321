package views

import "github.com/23CSBS271/focus-flow/domain"

var columnTitles = map[domain.Status]string{
	domain.StatusTodo:       "To Do",
	domain.StatusInProgress: "In Progress",
	domain.StatusCompleted:  "Completed",
}

// Column is one kanban lane. Its ID doubles as a drop target.
type Column struct {
	ID    domain.Status
	Title string
	Tasks []domain.Task
}

// Board holds the three status columns in workflow order.
type Board struct {
	Columns []Column
}

// Kanban partitions tasks by status, keeping input order within a column.
// Tasks with an unknown status are shown under todo.
func Kanban(tasks []domain.Task) Board {
	idx := make(map[domain.Status]int, len(domain.Statuses))
	board := Board{Columns: make([]Column, len(domain.Statuses))}
	for i, s := range domain.Statuses {
		idx[s] = i
		board.Columns[i] = Column{ID: s, Title: columnTitles[s]}
	}
	for _, t := range tasks {
		i, ok := idx[t.Status]
		if !ok {
			i = idx[domain.StatusTodo]
		}
		board.Columns[i].Tasks = append(board.Columns[i].Tasks, t)
	}
	return board
}

// Column returns the lane for status.
func (b Board) Column(status domain.Status) (Column, bool) {
	for _, c := range b.Columns {
		if c.ID == status {
			return c, true
		}
	}
	return Column{}, false
}

// IsColumn reports whether id names one of the board's columns.
func (b Board) IsColumn(id string) bool {
	_, ok := b.Column(domain.Status(id))
	return ok
}
