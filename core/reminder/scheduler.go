package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/plantcare/core"
	"github.com/trezcool/plantcare/core/plant"
	"github.com/trezcool/plantcare/core/user"
)

// DefaultSchedule fires the sweep every day at 09:00 in the scheduler's location.
const DefaultSchedule = "0 9 * * *"

const sweepKey = "sweep"

type (
	UserLister interface {
		QueryAll(ctx context.Context) ([]user.User, error)
	}

	PlantLister interface {
		ListForOwner(ctx context.Context, ownerID string) ([]plant.Plant, error)
	}

	Deps struct {
		Users    UserLister
		Plants   PlantLister
		Mail     core.EmailService
		Clock    core.Clock  // defaults to core.SystemClock
		Logger   core.Logger // defaults to core.NopLogger
		Location *time.Location
		Schedule string // cron spec (5 fields or descriptor), defaults to DefaultSchedule
		Subject  string // defaults to DefaultSubject

		FrontendBaseURL string
	}

	// Report sums up one sweep.
	Report struct {
		Users         int       `json:"users"`
		Notified      int       `json:"notified"`
		NoDue         int       `json:"no_due"`
		Failed        int       `json:"failed"`
		InvalidPlants int       `json:"invalid_plants"`
		StartedAt     time.Time `json:"started_at"`
		FinishedAt    time.Time `json:"finished_at"`
		Err           string    `json:"error,omitempty"` // set when users could not be listed
	}

	// Scheduler runs reminder sweeps on a cron schedule and on demand.
	// Overlapping runs share a single sweep.
	Scheduler struct {
		deps   Deps
		parser cron.Parser
		group  singleflight.Group

		mu     sync.Mutex
		c      *cron.Cron
		runCtx context.Context
		cancel context.CancelFunc
	}

	userOutcome int
)

const (
	outcomeNoDue userOutcome = iota
	outcomeNotified
	outcomeFailed
)

func New(deps Deps) *Scheduler {
	if deps.Clock == nil {
		deps.Clock = core.SystemClock
	}
	if deps.Logger == nil {
		deps.Logger = core.NopLogger{}
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Schedule == "" {
		deps.Schedule = DefaultSchedule
	}
	if deps.Subject == "" {
		deps.Subject = DefaultSubject
	}
	return &Scheduler{
		deps:   deps,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Start registers the sweep on the schedule. Calling Start twice is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	sched, err := s.parser.Parse(s.deps.Schedule)
	if err != nil {
		return errors.Wrapf(err, "parsing reminder schedule %q", s.deps.Schedule)
	}

	logger := cronLogger{s.deps.Logger}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(s.deps.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	s.runCtx, s.cancel = context.WithCancel(context.Background())
	runCtx := s.runCtx
	s.c.Schedule(sched, cron.FuncJob(func() { s.RunNow(runCtx) }))
	s.c.Start()

	s.deps.Logger.Info("reminder scheduler started", map[string]interface{}{
		"schedule": s.deps.Schedule,
		"tz":       s.deps.Location.String(),
		"next":     sched.Next(s.deps.Clock.Now().In(s.deps.Location)),
	})
	return nil
}

// Stop removes the schedule and waits for a running scheduled sweep to finish.
// When ctx is done first, the sweep is cancelled and ctx's error returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel, s.runCtx = nil, nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	defer cancel()

	select {
	case <-c.Stop().Done():
		s.deps.Logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs a sweep synchronously and reports on it. A call made while another sweep is
// running joins that sweep and returns its report.
// The sweep runs detached from ctx so that one caller leaving does not cut it short for the
// others; a caller whose ctx is done gets back a report carrying ctx's error right away.
// Only Stop cancels a running sweep.
// It never panics; all failures end up in the logs, the metrics and the report.
func (s *Scheduler) RunNow(ctx context.Context) Report {
	if err := ctx.Err(); err != nil {
		now := s.deps.Clock.Now()
		return Report{StartedAt: now, FinishedAt: now, Err: err.Error()}
	}

	sweepCtx := s.sweepContext(ctx)
	ch := s.group.DoChan(sweepKey, func() (interface{}, error) {
		return s.sweep(sweepCtx), nil
	})
	select {
	case res := <-ch:
		return res.Val.(Report)
	case <-ctx.Done():
		now := s.deps.Clock.Now()
		return Report{StartedAt: now, FinishedAt: now, Err: ctx.Err().Error()}
	}
}

// sweepContext is the scheduler's run context while started, ctx without its cancellation otherwise.
func (s *Scheduler) sweepContext(ctx context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return s.runCtx
	}
	return context.WithoutCancel(ctx)
}

func (s *Scheduler) sweep(ctx context.Context) (rep Report) {
	now := s.deps.Clock.Now()
	rep.StartedAt = now
	sweepsTotal.Inc()
	began := time.Now()
	defer func() {
		sweepDuration.Observe(time.Since(began).Seconds())
		rep.FinishedAt = s.deps.Clock.Now()
		s.deps.Logger.Info("reminder sweep done", map[string]interface{}{
			"users":          rep.Users,
			"notified":       rep.Notified,
			"no_due":         rep.NoDue,
			"failed":         rep.Failed,
			"invalid_plants": rep.InvalidPlants,
		})
	}()
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic: %v", r)
			s.deps.Logger.Error("reminder sweep aborted", err)
			rep.Err = err.Error()
		}
	}()

	users, err := s.deps.Users.QueryAll(ctx)
	if err != nil {
		s.deps.Logger.Error("reminder sweep: listing users failed", err)
		rep.Err = err.Error()
		return rep
	}
	rep.Users = len(users)

	for _, usr := range users {
		if err := ctx.Err(); err != nil {
			s.deps.Logger.Warn("reminder sweep interrupted", err)
			rep.Err = err.Error()
			return rep
		}
		outcome, invalid := s.remind(ctx, usr, now)
		rep.InvalidPlants += invalid
		switch outcome {
		case outcomeNotified:
			rep.Notified++
		case outcomeNoDue:
			rep.NoDue++
		default:
			rep.Failed++
		}
	}
	return rep
}

// remind evaluates one user's plants and sends them a single notification for the due ones.
func (s *Scheduler) remind(ctx context.Context, usr user.User, now time.Time) (outcome userOutcome, invalid int) {
	defer func() {
		if r := recover(); r != nil {
			userFailuresTotal.WithLabelValues("panic").Inc()
			s.deps.Logger.Error("reminder sweep: panic", usr, errors.New(fmt.Sprint(r)))
			outcome = outcomeFailed
		}
	}()

	plants, err := s.deps.Plants.ListForOwner(ctx, usr.ID)
	if err != nil {
		userFailuresTotal.WithLabelValues("plants").Inc()
		s.deps.Logger.Error("reminder sweep: listing plants failed", usr, err)
		return outcomeFailed, 0
	}

	due := make([]plant.Plant, 0, len(plants))
	for _, p := range plants {
		res, err := plant.Evaluate(p, now, s.deps.Location)
		if err != nil {
			invalid++
			invalidPlantsTotal.Inc()
			s.deps.Logger.Warn("reminder sweep: skipping plant", usr, err, map[string]interface{}{"plant_id": p.ID})
			continue
		}
		if res.IsDue {
			p.LastWatered = p.LastWatered.In(s.deps.Location)
			due = append(due, p)
		}
	}
	if len(due) == 0 {
		return outcomeNoDue, invalid
	}

	msg := NewNotification(NotificationBatch{Owner: usr, Plants: due}, s.deps.Subject)
	msg.FrontendBaseURL = s.deps.FrontendBaseURL
	if err := s.deps.Mail.SendMessage(ctx, msg); err != nil {
		notificationsTotal.WithLabelValues("failed").Inc()
		userFailuresTotal.WithLabelValues("send").Inc()
		s.deps.Logger.Error("reminder sweep: sending notification failed", usr, err)
		return outcomeFailed, invalid
	}
	notificationsTotal.WithLabelValues("sent").Inc()
	s.deps.Logger.Debug("reminder sent", usr, map[string]interface{}{"plants": len(due)})
	return outcomeNotified, invalid
}

// cronLogger routes cron's own logs to core.Logger.
type cronLogger struct {
	l core.Logger
}

func (cl cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.l.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (cl cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	cl.l.Error("cron: "+msg, err, kvMap(keysAndValues))
}

func kvMap(kv []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return m
}
