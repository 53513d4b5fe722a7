package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sakif/codeminder/internal/metrics"
)

type ContestSource interface {
	Upcoming(ctx context.Context) ([]Contest, error)
}

// EmailSource lists the addresses to notify.
type EmailSource interface {
	ListUserEmails(ctx context.Context) ([]string, error)
}

// Job sends one reminder per (user, contest starting tomorrow).
type Job struct {
	contests ContestSource
	users    EmailSource
	mailer   Mailer
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
	timeout  time.Duration
}

func NewJob(contests ContestSource, users EmailSource, mailer Mailer, logger *slog.Logger) *Job {
	return &Job{
		contests: contests,
		users:    users,
		mailer:   mailer,
		logger:   logger,
		loc:      time.Local,
		now:      time.Now,
		timeout:  5 * time.Minute,
	}
}

// Report summarises one run.
type Report struct {
	Contests int
	Sent     int
	Failed   int
}

// Run checks the calendar once. Individual send failures are logged and
// counted; only failing to read contests or users aborts the run.
func (j *Job) Run(ctx context.Context) (Report, error) {
	var report Report

	upcoming, err := j.contests.Upcoming(ctx)
	if err != nil {
		return report, err
	}
	tomorrow := StartingTomorrow(upcoming, j.now(), j.loc)
	report.Contests = len(tomorrow)
	if len(tomorrow) == 0 {
		return report, nil
	}

	emails, err := j.users.ListUserEmails(ctx)
	if err != nil {
		return report, fmt.Errorf("reminder: listing users: %w", err)
	}

	for _, c := range tomorrow {
		subject, body := reminderText(c, j.loc)
		for _, email := range emails {
			if email == "" {
				continue
			}
			if err := j.mailer.Send(ctx, email, subject, body); err != nil {
				report.Failed++
				metrics.ReminderEmails.WithLabelValues("error").Inc()
				j.logger.Warn("contest reminder failed",
					slog.String("contest", c.Name),
					slog.String("email", email),
					slog.String("error", err.Error()),
				)
				continue
			}
			report.Sent++
			metrics.ReminderEmails.WithLabelValues("sent").Inc()
		}
	}
	return report, nil
}

// Schedule registers Run on a cron spec and starts the scheduler. The caller
// stops it with Stop.
func (j *Job) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(j.loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		report, err := j.Run(ctx)
		if err != nil {
			j.logger.Error("contest reminder run failed", slog.String("error", err.Error()))
			return
		}
		j.logger.Info("contest reminder run finished",
			slog.Int("contests", report.Contests),
			slog.Int("sent", report.Sent),
			slog.Int("failed", report.Failed),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("reminder: invalid schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

// StartingTomorrow returns the contests whose start falls on the calendar
// day after now, in loc.
func StartingTomorrow(contests []Contest, now time.Time, loc *time.Location) []Contest {
	ty, tm, td := now.In(loc).AddDate(0, 0, 1).Date()
	var out []Contest
	for _, c := range contests {
		y, m, d := c.StartDate.In(loc).Date()
		if y == ty && m == tm && d == td {
			out = append(out, c)
		}
	}
	return out
}

func reminderText(c Contest, loc *time.Location) (subject, body string) {
	subject = fmt.Sprintf("Reminder: %s is happening tomorrow!", c.Name)
	body = fmt.Sprintf("Hello,\n\nDon't forget about the upcoming contest!\n\n"+
		"Contest Name: %s\nStarts At: %s\nLink: %s\n\nGood Luck!\n",
		c.Name, c.StartDate.In(loc).Format("Mon, 02 Jan 2006 15:04 MST"), c.URL)
	return subject, body
}
