// Package tui runs an assessment in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/services"
)

// ErrAborted is returned when the user quits mid-assessment.
var ErrAborted = errors.New("assessment aborted")

// Asker collects raw input for one question. A nil answer keeps the current
// value and moves on.
type Asker interface {
	Ask(q *services.QuestionView, header string) (any, error)
}

// Runner drives a session of the assessment service with an Asker.
type Runner struct {
	svc   *services.AssessmentService
	asker Asker
	out   io.Writer
	bar   progress.Model
}

func NewRunner(svc *services.AssessmentService, asker Asker, out io.Writer) *Runner {
	return &Runner{
		svc:   svc,
		asker: asker,
		out:   out,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

// Run starts a session and asks every visible question until the flow
// completes. Rejected input is asked again. On abort or error the session
// is abandoned.
func (r *Runner) Run(ctx context.Context, req services.StartRequest) (*services.SessionView, error) {
	v, err := r.svc.Start(req)
	if err != nil {
		return nil, err
	}
	id := v.ID
	for v.State == assessment.StateInProgress {
		if err := ctx.Err(); err != nil {
			r.abandon(id)
			return nil, err
		}
		raw, err := r.asker.Ask(v.Question, r.Header(v))
		if err != nil {
			r.abandon(id)
			return nil, err
		}
		if raw != nil {
			v, err = r.svc.Answer(id, v.Question.ID, raw)
			if err != nil {
				r.abandon(id)
				return nil, err
			}
			if v.Accepted != nil && !*v.Accepted {
				fmt.Fprintln(r.out, warnStyle.Render("That answer was not accepted, please try again."))
				continue
			}
		}
		if v, err = r.svc.Advance(id); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Header is the progress line shown above each question.
func (r *Runner) Header(v *services.SessionView) string {
	return fmt.Sprintf("%s  %d/%d", r.bar.ViewAs(v.Progress), v.Step, v.Total)
}

func (r *Runner) abandon(id string) {
	_, _ = r.svc.Abandon(id)
}
