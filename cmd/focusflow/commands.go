package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/23CSBS271/focus-flow/config"
	"github.com/23CSBS271/focus-flow/domain"
	"github.com/23CSBS271/focus-flow/drag"
	"github.com/23CSBS271/focus-flow/filter"
	"github.com/23CSBS271/focus-flow/views"
)

const dateLayout = "2006-01-02"

// resolveID accepts a full task id or a unique prefix of one.
func (a *app) resolveID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if _, ok := a.tasks.Get(ref); ok {
		return ref, nil
	}
	var match string
	for _, t := range a.tasks.All() {
		if !strings.HasPrefix(t.ID, ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("task id %q is ambiguous", ref)
		}
		match = t.ID
	}
	if match == "" {
		return "", &domain.NotFoundError{ID: ref}
	}
	return match, nil
}

// parseDue turns "YYYY-MM-DD" plus an optional "HH:MM" into a local due time.
// "none" clears the date and yields nil.
func parseDue(date, clock string, loc *time.Location) (*time.Time, error) {
	date = strings.TrimSpace(date)
	if strings.EqualFold(date, "none") {
		return nil, nil
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return nil, &domain.ValidationError{Field: "dueDate", Reason: "expected YYYY-MM-DD, got " + date}
	}
	due, err := domain.DueAt(day, clock)
	if err != nil {
		return nil, err
	}
	return &due, nil
}

type viewFlags struct {
	query      string
	statuses   []string
	priorities []string
	month      string
	day        string
}

func newViewCmd(root *rootFlags) *cobra.Command {
	f := &viewFlags{}
	cmd := &cobra.Command{
		Use:       "view [daily|weekly|monthly|kanban|calendar|category]",
		Short:     "Render the task list in one of the dashboard views",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"daily", "weekly", "monthly", "kanban", "calendar", "category"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := views.ModeDaily
			if len(args) == 1 {
				m, err := views.ParseMode(args[0])
				if err != nil {
					return err
				}
				mode = m
			}
			state, err := f.filterState()
			if err != nil {
				return err
			}
			return withApp(cmd, root, func(a *app) error {
				now := a.now()
				tasks := state.Apply(a.tasks.All())
				if mode == views.ModeCalendar && (f.month != "" || f.day != "") {
					return a.renderCalendar(tasks, now, f.month, f.day)
				}
				v, err := a.projector.Project(mode, tasks, now)
				if err != nil {
					return err
				}
				if state.ActiveCount() > 0 || state.Query != "" {
					fmt.Fprintf(a.out, "%d of %d tasks match the filters\n\n", len(tasks), a.tasks.Len())
				}
				return renderView(a.out, v, now)
			})
		},
	}
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search title and description")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "only show these statuses (todo, in-progress, completed)")
	cmd.Flags().StringSliceVar(&f.priorities, "priority", nil, "only show these priorities (low, medium, high, urgent)")
	cmd.Flags().StringVar(&f.month, "month", "", "calendar month to show as YYYY-MM")
	cmd.Flags().StringVar(&f.day, "day", "", "calendar day to select as YYYY-MM-DD")
	return cmd
}

func (f *viewFlags) filterState() (filter.State, error) {
	var s filter.State
	s.SetQuery(f.query)
	for _, v := range f.statuses {
		st := domain.Status(strings.TrimSpace(v))
		if !st.Valid() {
			return s, &domain.ValidationError{Field: "status", Reason: "unknown value " + v}
		}
		s.ToggleStatus(st)
	}
	for _, v := range f.priorities {
		p := domain.Priority(strings.TrimSpace(v))
		if !p.Valid() {
			return s, &domain.ValidationError{Field: "priority", Reason: "unknown value " + v}
		}
		s.TogglePriority(p)
	}
	return s, nil
}

// renderCalendar navigates to the requested month and lists the tasks of the
// selected day under the grid.
func (a *app) renderCalendar(tasks []domain.Task, now time.Time, month, day string) error {
	cal := views.NewCalendar(now, a.projector.Calendar)
	loc := now.Location()
	if day != "" {
		d, err := time.ParseInLocation(dateLayout, day, loc)
		if err != nil {
			return fmt.Errorf("--day: expected YYYY-MM-DD, got %q", day)
		}
		if month == "" {
			month = d.Format("2006-01")
		}
		defer func() {
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, sectionStyle.Render(d.Format("Monday, January 2")))
			for _, t := range cal.SelectedTasks(tasks) {
				fmt.Fprintln(a.out, "  "+taskLine(t, now))
			}
		}()
		cal.Select(d)
	}
	if month != "" {
		target, err := time.ParseInLocation("2006-01", month, loc)
		if err != nil {
			return fmt.Errorf("--month: expected YYYY-MM, got %q", month)
		}
		for cal.Month().Before(target) {
			cal.Next()
		}
		for cal.Month().After(target) {
			cal.Prev()
		}
	}
	renderMonth(a.out, cal.Grid(tasks, now))
	return nil
}

type taskFlags struct {
	description string
	priority    string
	status      string
	category    string
	due         string
	at          string
	tags        []string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "low, medium, high or urgent")
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "todo, in-progress or completed")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "personal, work, health, shopping or other")
	cmd.Flags().StringVar(&f.due, "due", "", "due date as YYYY-MM-DD, or none")
	cmd.Flags().StringVar(&f.at, "at", domain.DefaultDueClock, "due time as HH:MM")
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "labels")
}

func newAddCmd(root *rootFlags) *cobra.Command {
	f := &taskFlags{}
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				in := domain.TaskInput{
					Title:       strings.Join(args, " "),
					Description: f.description,
					Priority:    domain.Priority(f.priority),
					Status:      domain.Status(f.status),
					Category:    f.category,
					Tags:        f.tags,
				}
				if f.due != "" {
					due, err := parseDue(f.due, f.at, time.Local)
					if err != nil {
						return err
					}
					in.DueDate = due
				}
				t, err := a.coord.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, "created "+taskLine(t, a.now()))
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(root *rootFlags) *cobra.Command {
	f := &taskFlags{}
	var title string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				id, err := a.resolveID(args[0])
				if err != nil {
					return err
				}
				var patch domain.TaskPatch
				flags := cmd.Flags()
				if flags.Changed("title") {
					patch.Title = &title
				}
				if flags.Changed("description") {
					patch.Description = &f.description
				}
				if flags.Changed("priority") {
					p := domain.Priority(f.priority)
					patch.Priority = &p
				}
				if flags.Changed("status") {
					s := domain.Status(f.status)
					patch.Status = &s
				}
				if flags.Changed("category") {
					patch.Category = &f.category
				}
				if flags.Changed("tag") {
					patch.Tags = &f.tags
				}
				if flags.Changed("due") {
					due, err := parseDue(f.due, f.at, time.Local)
					if err != nil {
						return err
					}
					if due == nil {
						patch.ClearDueDate = true
					} else {
						patch.DueDate = due
					}
				}
				t, err := a.coord.Update(cmd.Context(), id, patch)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, "updated "+taskLine(t, a.now()))
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "new title")
	return cmd
}

func newStatusCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <todo|in-progress|completed>",
		Short: "Set the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				id, err := a.resolveID(args[0])
				if err != nil {
					return err
				}
				t, err := a.coord.SetStatus(cmd.Context(), id, domain.Status(args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, "updated "+taskLine(t, a.now()))
				return nil
			})
		},
	}
}

func newToggleCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task completed, or reopen it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				id, err := a.resolveID(args[0])
				if err != nil {
					return err
				}
				t, err := a.coord.ToggleComplete(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, "updated "+taskLine(t, a.now()))
				return nil
			})
		},
	}
}

func newMoveCmd(root *rootFlags) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "move <id> <YYYY-MM-DD|none>",
		Short: "Move a task to another day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				id, err := a.resolveID(args[0])
				if err != nil {
					return err
				}
				due, err := parseDue(args[1], at, time.Local)
				if err != nil {
					return err
				}
				t, err := a.coord.MoveDueDate(cmd.Context(), id, due)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, "moved "+taskLine(t, a.now()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", domain.DefaultDueClock, "due time as HH:MM")
	return cmd
}

// newDropCmd replays a kanban drag: the task is picked up and released over
// a column or over another task, whose column it joins.
func newDropCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <id> <column|task-id>",
		Short: "Drop a task onto a kanban column or onto another task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				id, err := a.resolveID(args[0])
				if err != nil {
					return err
				}
				target := args[1]
				if !domain.Status(target).Valid() {
					if target, err = a.resolveID(target); err != nil {
						return err
					}
				}
				ctrl := a.dragController()
				ctrl.Press(id, 0, 0)
				ctrl.Move(drag.DefaultThreshold, drag.DefaultThreshold)
				outcome, err := ctrl.Drop(cmd.Context(), drag.Target{ID: target})
				if err != nil {
					return err
				}
				if !outcome.Committed {
					fmt.Fprintln(a.out, "nothing to do: "+outcome.Reason)
					return nil
				}
				t, _ := a.tasks.Get(outcome.TaskID)
				fmt.Fprintln(a.out, "moved to "+string(outcome.Status)+" "+taskLine(t, a.now()))
				return nil
			})
		},
	}
}

func newRemoveCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				id, err := a.resolveID(args[0])
				if err != nil {
					return err
				}
				if err := a.coord.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "deleted "+shortID(id))
				return nil
			})
		},
	}
}

func newProfileCmd(root *rootFlags) *cobra.Command {
	var name, avatar string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				var patch domain.ProfilePatch
				if cmd.Flags().Changed("name") {
					patch.Name = &name
				}
				if cmd.Flags().Changed("avatar") {
					patch.Avatar = &avatar
				}
				if patch.Name == nil && patch.Avatar == nil {
					p, err := a.cache.FetchProfile(cmd.Context(), a.userID)
					if err != nil {
						return err
					}
					renderProfile(a.out, p)
					return nil
				}
				p, err := a.cache.UpdateProfile(cmd.Context(), a.userID, patch)
				if err != nil {
					return err
				}
				renderProfile(a.out, p)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	return cmd
}

func newConfigCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write focusflow.yml",
	}
	var global bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to focusflow.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if root.userID != "" {
				cfg.UserID = root.userID
			}
			path := config.ProjectPath()
			if global {
				path = config.GlobalPath()
			}
			if err := config.Write(path, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote "+path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&global, "global", false, "write to the XDG config directory")
	cmd.AddCommand(initCmd)
	return cmd
}
