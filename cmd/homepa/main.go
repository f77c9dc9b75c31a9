package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aster-void/home-pa-sub000/internal/config"
	"github.com/aster-void/home-pa-sub000/internal/enrich"
	"github.com/aster-void/home-pa-sub000/internal/errand"
	appLog "github.com/aster-void/home-pa-sub000/internal/log"
	"github.com/aster-void/home-pa-sub000/internal/model"
	"github.com/aster-void/home-pa-sub000/internal/planner"
	"github.com/aster-void/home-pa-sub000/internal/schedule"
)

type flagConfig struct {
	configPath string
	once       bool
	date       string
	errandDemo bool
}

func main() {
	appLog.Info("homepa starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.Level(conf.LogLevel))

	if flags.errandDemo {
		runErrandDemo(conf)
		return
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone, falling back to local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	planDate := time.Now().In(loc)
	if flags.date != "" {
		planDate, err = time.ParseInLocation("2006-01-02", flags.date, loc)
		if err != nil {
			appLog.Error("invalid -date, expected YYYY-MM-DD", err, "date", flags.date)
			os.Exit(1)
		}
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"day_start", conf.Boundaries.DayStart,
		"day_end", conf.Boundaries.DayEnd,
		"default_session_min", conf.DefaultSessionMin,
		"replan", conf.ReplanCron,
		"enrichment", conf.Enrichment.Enabled,
		"once", flags.once,
	)

	p := planner.New(planner.Config{
		Location:          loc,
		Boundaries:        conf.Boundaries,
		Date:              planDate,
		DefaultSessionMin: conf.DefaultSessionMin,
	})
	p.SetEvents(sampleEvents(planDate, loc))
	p.SetTasks(sampleTasks(time.Now().In(loc)))

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	var runner *enrich.Runner
	if conf.Enrichment.Enabled {
		scorer := enrich.NewRateLimited(enrich.Heuristic{}, conf.Enrichment.RPS, conf.Enrichment.Burst)
		runner = enrich.NewRunner(scorer, p, enrich.Config{
			Workers:   conf.Enrichment.Workers,
			QueueSize: conf.Enrichment.QueueSize,
		})
		runner.Start()
		for _, t := range p.Tasks() {
			if needsEnrichment(t) {
				runner.Submit(t.ID)
			}
		}
	}

	if flags.once {
		if runner != nil {
			waitForEnrichment(p, 3*time.Second)
			runner.Stop()
		}
		snap := regenerate(p)
		printPlan(p, snap)
		return
	}

	replan := func() {
		snap := regenerate(p)
		appLog.Info("plan regenerated",
			"generation", snap.Generation,
			"scheduled", len(snap.Result.Scheduled),
			"dropped", len(snap.Result.Dropped),
			"free_min", snap.GapSummary.TotalFreeMin,
		)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(conf.ReplanCron, replan); err != nil {
		appLog.Error("invalid replan cron spec", err, "spec", conf.ReplanCron)
		os.Exit(1)
	}
	// Midnight rollover re-anchors the planned day.
	if _, err := c.AddFunc("0 0 * * *", func() {
		p.SetDate(time.Now().In(loc))
		replan()
	}); err != nil {
		appLog.Error("failed to register rollover job", err)
		os.Exit(1)
	}
	c.Start()

	go func() {
		err := config.Watch(ctx, flags.configPath, func(next *config.Config) {
			applyConfig(p, conf, next)
			replan()
		})
		if err != nil {
			appLog.Error("config watch stopped", err, "config_path", flags.configPath)
		}
	}()

	snap := regenerate(p)
	printPlan(p, snap)

	<-ctx.Done()

	<-c.Stop().Done()
	if runner != nil {
		runner.Stop()
	}
	appLog.Info("homepa exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/homepa/config.yaml", "Path to config file")
	flag.BoolVar(&cfg.once, "once", false, "Plan the day once, print it and exit")
	flag.StringVar(&cfg.date, "date", "", "Plan this date (YYYY-MM-DD) instead of today")
	flag.BoolVar(&cfg.errandDemo, "errand-demo", false, "Run the errand planner on random suggestions and exit")

	flag.Parse()

	return cfg
}

// regenerate retries until a pass commits. A pass only fails when an
// input mutation landed mid-computation, so the loop is short.
func regenerate(p *planner.Planner) planner.Snapshot {
	for {
		snap, committed := p.Regenerate()
		if committed {
			return snap
		}
	}
}

func printPlan(p *planner.Planner, snap planner.Snapshot) {
	for _, expErr := range snap.ExpandErrs {
		appLog.Error("event skipped", expErr.Err, "event_id", expErr.EventID)
	}
	fmt.Println(schedule.FormatResult(snap.Result, p.Tasks(), snap.Gaps))
}

// applyConfig pushes a reloaded config into the running planner. The
// timezone is fixed at startup; changing it needs a restart.
func applyConfig(p *planner.Planner, prev, next *config.Config) {
	appLog.SetLevel(appLog.Level(next.LogLevel))
	if err := p.SetDayBoundaries(next.Boundaries); err != nil {
		appLog.Error("reloaded day boundaries rejected", err,
			"day_start", next.Boundaries.DayStart, "day_end", next.Boundaries.DayEnd)
	}
	p.SetDefaultSessionMin(next.DefaultSessionMin)
	if next.Timezone != prev.Timezone {
		appLog.Info("timezone change takes effect on restart",
			"current", prev.Timezone, "new", next.Timezone)
	}
}

func needsEnrichment(t model.Task) bool {
	return t.Genre == "" || t.Importance == "" ||
		t.SessionDurationMin == 0 || t.TotalDurationExpectedMin == 0
}

// waitForEnrichment polls until no task carries the enriching marker,
// for single-shot runs that want enriched durations in the printout.
func waitForEnrichment(p *planner.Planner, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		pending := false
		for _, t := range p.Tasks() {
			if t.Enriching {
				pending = true
				break
			}
		}
		if !pending {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	appLog.Debug("enrichment still pending at deadline")
}

// sampleEvents seeds a believable calendar around the planned date: a
// weekly standup on its weekday, a fixed lunch, a monthly review and an
// all-day reminder that must not block any gap.
func sampleEvents(date time.Time, loc *time.Location) []model.Event {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	weekly, err := model.NewWeeklyRecurrence(1, model.NewWeekdays(day.Weekday()), nil, 0)
	if err != nil {
		appLog.Error("sample weekly recurrence", err)
		weekly = model.NoRecurrence()
	}
	monthly, err := model.NewRRuleRecurrence("FREQ=MONTHLY;BYDAY=2FR", nil)
	if err != nil {
		appLog.Error("sample monthly recurrence", err)
		monthly = model.NoRecurrence()
	}

	standupStart := day.AddDate(0, 0, -28).Add(9*time.Hour + 30*time.Minute)
	reviewStart := day.AddDate(0, -2, 0).Add(15 * time.Hour)

	return []model.Event{
		{
			ID:         "standup",
			Title:      "team standup",
			Start:      standupStart,
			End:        standupStart.Add(30 * time.Minute),
			TimeLabel:  model.TimeLabelTimed,
			Recurrence: weekly,
		},
		{
			ID:         "lunch",
			Title:      "lunch",
			Start:      day.Add(12 * time.Hour),
			End:        day.Add(13 * time.Hour),
			TimeLabel:  model.TimeLabelTimed,
			Recurrence: model.NoRecurrence(),
		},
		{
			ID:         "review",
			Title:      "monthly review",
			Start:      reviewStart,
			End:        reviewStart.Add(time.Hour),
			TimeLabel:  model.TimeLabelTimed,
			Recurrence: monthly,
		},
		{
			ID:         "package",
			Title:      "package arriving",
			Start:      day,
			End:        day.AddDate(0, 0, 1),
			TimeLabel:  model.TimeLabelAllDay,
			Recurrence: model.NoRecurrence(),
		},
	}
}

// sampleTasks seeds the demo task list. Two of them arrive deliberately
// sparse so the enrichment runner has something to fill in.
func sampleTasks(now time.Time) []model.Task {
	reportDue := now.AddDate(0, 0, 2)
	bankDue := now.AddDate(0, 0, 1)

	return []model.Task{
		{
			ID:                       model.NewTaskID(),
			Title:                    "finish quarterly report",
			Type:                     model.TaskDeadline,
			Deadline:                 &reportDue,
			Importance:               model.ImportanceHigh,
			SessionDurationMin:       50,
			TotalDurationExpectedMin: 150,
			Genre:                    "admin",
			CreatedAt:                now.Add(-48 * time.Hour),
		},
		{
			ID:                 model.NewTaskID(),
			Title:              "gym workout",
			Type:               model.TaskRoutine,
			Goal:               &model.RecurrenceGoal{Count: 3, Period: model.PeriodWeek},
			Importance:         model.ImportanceMedium,
			SessionDurationMin: 45,
			Genre:              "health",
			CreatedAt:          now.Add(-30 * 24 * time.Hour),
		},
		{
			ID:        model.NewTaskID(),
			Title:     "call the bank about the card",
			Type:      model.TaskDeadline,
			Deadline:  &bankDue,
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID:        model.NewTaskID(),
			Title:     "study spanish vocabulary",
			Type:      model.TaskBacklog,
			CreatedAt: now.Add(-72 * time.Hour),
		},
	}
}

// runErrandDemo plans randomly generated suggestions over a fixed set
// of gaps and prints the result.
func runErrandDemo(conf *config.Config) {
	gaps := []errand.Gap{
		{ID: "morning", DurationMin: 180,
			Start: errand.Coordinate{X: 1.2, Y: 1.8}, End: errand.Coordinate{X: 3.6, Y: 3.1},
			StartLabel: "home", EndLabel: "studio"},
		{ID: "midday", DurationMin: 70,
			Start: errand.Coordinate{X: 3.8, Y: 3.2}, End: errand.Coordinate{X: 4.0, Y: 3.5},
			StartLabel: "studio", EndLabel: "midtown"},
		{ID: "evening", DurationMin: 90,
			Start: errand.Coordinate{X: 6.8, Y: 6.4}, End: errand.Coordinate{X: 9.0, Y: 8.5},
			StartLabel: "midtown", EndLabel: "home"},
	}

	genCfg := errand.DefaultGenConfig()
	genCfg.Seed = conf.Errand.Seed
	suggestions := errand.GenerateSuggestions(conf.Errand.Suggestions, genCfg)
	appLog.Info("errand demo", "suggestions", len(suggestions), "gaps", len(gaps), "seed", conf.Errand.Seed)

	result, err := errand.Schedule(suggestions, gaps, errand.Options{
		PermutationLimit: conf.Errand.PermutationLimit,
	})
	if err != nil {
		appLog.Error("errand planning failed", err)
		os.Exit(1)
	}
	fmt.Println(errand.Format(result))
}
