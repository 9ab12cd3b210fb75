package cli

import (
	"fmt"
	"io"
	"time"

	"lector-reader/internal/domain"
)

type annotationView struct {
	ID        string    `json:"id" yaml:"id"`
	Page      int       `json:"page" yaml:"page"`
	Kind      string    `json:"kind" yaml:"kind"`
	Color     string    `json:"color" yaml:"color"`
	Text      string    `json:"text" yaml:"text"`
	Note      string    `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

func newAnnotationView(a *domain.Annotation) annotationView {
	kind, base := domain.DecodeColor(a.Color)
	v := annotationView{
		ID:        a.ID,
		Page:      a.PageNumber,
		Kind:      string(kind),
		Color:     base,
		Text:      a.TextContent,
		CreatedAt: a.CreatedAt,
	}
	if a.Note != nil {
		v.Note = *a.Note
	}
	return v
}

func newAnnotationViews(list []*domain.Annotation) []annotationView {
	out := make([]annotationView, 0, len(list))
	for _, a := range list {
		out = append(out, newAnnotationView(a))
	}
	return out
}

func writeAnnotations(w io.Writer, views []annotationView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "no annotations")
		return
	}
	for _, v := range views {
		fmt.Fprintf(w, "%s  p.%d  %s/%s  %q\n", v.ID, v.Page, v.Kind, v.Color, excerpt(v.Text, 48))
		if v.Note != "" {
			fmt.Fprintf(w, "    note: %s\n", v.Note)
		}
	}
}

type progressView struct {
	Document  string     `json:"book" yaml:"book"`
	Page      int        `json:"current_page" yaml:"current_page"`
	Percent   float64    `json:"percent" yaml:"percent"`
	Location  string     `json:"location" yaml:"location"`
	TimeSpent string     `json:"time_spent,omitempty" yaml:"time_spent,omitempty"`
	Completed bool       `json:"completed" yaml:"completed"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func newProgressView(p *domain.ReadingProgress) progressView {
	v := progressView{
		Document:  p.DocumentID,
		Page:      p.CurrentPage,
		Percent:   p.Percent,
		Location:  p.LastLocation,
		Completed: p.Completed,
	}
	if p.TotalTimeSeconds > 0 {
		v.TimeSpent = (time.Duration(p.TotalTimeSeconds) * time.Second).String()
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		v.UpdatedAt = &updated
	}
	return v
}

func progressUpdateView(documentID string, u domain.ProgressUpdate) progressView {
	return progressView{
		Document:  documentID,
		Page:      u.CurrentPage,
		Percent:   u.Percent,
		Location:  u.Location,
		Completed: u.Percent >= 100,
	}
}

func writeProgress(w io.Writer, v progressView) {
	fmt.Fprintf(w, "%s: %s (%.0f%%)", v.Document, v.Location, v.Percent)
	if v.Completed {
		fmt.Fprint(w, ", finished")
	}
	if v.TimeSpent != "" {
		fmt.Fprintf(w, ", %s read", v.TimeSpent)
	}
	fmt.Fprintln(w)
}

type dashboardStatsView struct {
	BooksRead    int     `json:"total_books_read" yaml:"total_books_read"`
	TimeSpent    string  `json:"time_spent" yaml:"time_spent"`
	StreakDays   int     `json:"current_streak_days" yaml:"current_streak_days"`
	GoalProgress float64 `json:"reading_goal_progress" yaml:"reading_goal_progress"`
}

type dashboardView struct {
	InProgress []progressView     `json:"in_progress" yaml:"in_progress"`
	Completed  []progressView     `json:"completed" yaml:"completed"`
	Stats      dashboardStatsView `json:"stats" yaml:"stats"`
}

func newDashboardView(d *domain.Dashboard) dashboardView {
	v := dashboardView{
		InProgress: make([]progressView, 0, len(d.InProgress)),
		Completed:  make([]progressView, 0, len(d.Completed)),
		Stats: dashboardStatsView{
			BooksRead:    d.Stats.TotalBooksRead,
			TimeSpent:    (time.Duration(d.Stats.TotalTimeSeconds) * time.Second).String(),
			StreakDays:   d.Stats.CurrentStreakDays,
			GoalProgress: d.Stats.ReadingGoalProgress,
		},
	}
	for _, p := range d.InProgress {
		v.InProgress = append(v.InProgress, newProgressView(p))
	}
	for _, p := range d.Completed {
		v.Completed = append(v.Completed, newProgressView(p))
	}
	return v
}

func writeDashboard(w io.Writer, v dashboardView) {
	fmt.Fprintln(w, "Reading:")
	if len(v.InProgress) == 0 {
		fmt.Fprintln(w, "  nothing in progress")
	}
	for _, p := range v.InProgress {
		fmt.Fprint(w, "  ")
		writeProgress(w, p)
	}
	fmt.Fprintln(w, "Finished:")
	if len(v.Completed) == 0 {
		fmt.Fprintln(w, "  nothing finished yet")
	}
	for _, p := range v.Completed {
		fmt.Fprint(w, "  ")
		writeProgress(w, p)
	}
	fmt.Fprintf(w, "%d books read, %s spent reading, %d day streak, %.0f%% of the yearly goal\n",
		v.Stats.BooksRead, v.Stats.TimeSpent, v.Stats.StreakDays, v.Stats.GoalProgress)
}

type whoamiView struct {
	UserID             string `json:"user_id" yaml:"user_id"`
	Email              string `json:"email,omitempty" yaml:"email,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty" yaml:"registration_number,omitempty"`
	StaffID            string `json:"staff_id,omitempty" yaml:"staff_id,omitempty"`
}

func writeWhoami(w io.Writer, v whoamiView) {
	fmt.Fprint(w, v.UserID)
	if v.Email != "" {
		fmt.Fprintf(w, " <%s>", v.Email)
	}
	switch {
	case v.StaffID != "":
		fmt.Fprintf(w, ", staff %s", v.StaffID)
	case v.RegistrationNumber != "":
		fmt.Fprintf(w, ", student %s", v.RegistrationNumber)
	}
	fmt.Fprintln(w)
}

func excerpt(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
