// Package app wires the configuration into a runnable scheduling service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/fieldsched/config"
	"github.com/fieldops/fieldsched/core/commitlog"
	"github.com/fieldops/fieldsched/core/events"
	coremetrics "github.com/fieldops/fieldsched/core/metrics"
	"github.com/fieldops/fieldsched/core/model"
	"github.com/fieldops/fieldsched/core/schedule"
	"github.com/fieldops/fieldsched/core/suggest"
	"github.com/fieldops/fieldsched/core/validate"
	"github.com/fieldops/fieldsched/infra/logger"
	"github.com/fieldops/fieldsched/infra/metrics"
	"github.com/fieldops/fieldsched/infra/notify"
	"github.com/fieldops/fieldsched/internal/eventbus"
)

// Service owns the engine components and their observability wiring.
type Service struct {
	cfg      *config.Config
	log      logger.Logger
	bus      eventbus.EventBus
	sink     coremetrics.MetricsSink
	notifier notify.Notifier
	commits  *commitlog.Log

	geographic *schedule.Geographic
	fillin     *schedule.FillIn
	validator  *validate.Validator
	suggester  *suggest.Engine
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	log := logger.New("service")

	geographic, err := schedule.NewGeographic(cfg.Engine, logger.New("geographic"))
	if err != nil {
		return nil, fmt.Errorf("geographic scheduler: %w", err)
	}
	fillin, err := schedule.NewFillIn(cfg.Engine, logger.New("fillin"))
	if err != nil {
		return nil, fmt.Errorf("fill-in scheduler: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxURL != "" {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.Enabled {
		n, err := notify.NewMQTTNotifier(cfg.Notify.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		notifier = n
	}

	return &Service{
		cfg:        cfg,
		log:        log,
		bus:        eventbus.New(),
		sink:       sink,
		notifier:   notifier,
		commits:    commitlog.New(cfg.CommitLogLimit),
		geographic: geographic,
		fillin:     fillin,
		validator:  validate.New(cfg.Validator),
		suggester:  suggest.New(cfg.Suggest),
	}, nil
}

// Bus exposes the event bus for subscribers.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// CommitLog exposes the commit boundary.
func (s *Service) CommitLog() *commitlog.Log { return s.commits }

// RunGeographic executes the batch pass and commits its placements.
func (s *Service) RunGeographic(ctx context.Context, snap *model.Snapshot) (*schedule.Result, error) {
	return s.runPass(ctx, snap, "geographic", s.geographic.Run)
}

// RunFillIn executes the gap pass and commits its placements.
func (s *Service) RunFillIn(ctx context.Context, snap *model.Snapshot) (*schedule.Result, error) {
	return s.runPass(ctx, snap, "fillin", s.fillin.Run)
}

func (s *Service) runPass(ctx context.Context, snap *model.Snapshot, mode string, pass func(context.Context, *model.Snapshot) (*schedule.Result, error)) (*schedule.Result, error) {
	runID := uuid.NewString()
	started := time.Now()
	s.bus.Publish(events.RunStarted{
		RunID: runID, Mode: mode,
		Jobs: len(snap.Jobs), Techs: len(snap.Technicians),
		Time: started,
	})

	res, err := pass(ctx, snap)
	if err != nil {
		return nil, err
	}
	committed := s.commit(runID, res)
	res.Refresh(snap)
	s.record(runID, mode, started, snap, res)
	for _, u := range res.Unplaced {
		s.bus.Publish(events.JobUnplaced{
			RunID: runID, WorkOrder: u.Job.WorkOrder,
			Reason: u.Reason, Time: time.Now(),
		})
	}
	s.bus.Publish(events.RunCompleted{
		RunID: runID, Mode: mode, Metrics: res.Metrics,
		Duration: time.Since(started), Time: time.Now(),
	})
	if err := s.notifier.NotifyAssignments(runID, committed); err != nil {
		s.log.Errorf("assignment notify failed: %v", err)
	}
	return res, nil
}

// commit pushes placements through the commit boundary. A placement that
// loses the compare-and-set race is moved to the unplaced accounting with
// a CONFLICT reason; the rest of the batch stands.
func (s *Service) commit(runID string, res *schedule.Result) []model.ScheduledJob {
	kept := res.Placements[:0]
	var committed []model.ScheduledJob
	for _, p := range res.Placements {
		if _, err := s.commits.Commit(runID, p); err != nil {
			s.log.Warnf("work order %d lost the commit race: %v", p.WorkOrder, err)
			res.Unplaced = append(res.Unplaced, schedule.UnplacedJob{
				Job:    model.Job{WorkOrder: p.WorkOrder},
				Reason: model.NewReason(model.ReasonConflict, err.Error()),
			})
			continue
		}
		kept = append(kept, p)
		committed = append(committed, p)
		s.bus.Publish(events.JobPlaced{RunID: runID, Placement: p, Time: time.Now()})
	}
	res.Placements = kept
	return committed
}

func (s *Service) record(runID, mode string, started time.Time, snap *model.Snapshot, res *schedule.Result) {
	recs := make([]coremetrics.PlacementRecord, 0, len(res.Placements))
	now := time.Now()
	for _, p := range res.Placements {
		region := ""
		if j, ok := snap.JobByWorkOrder(p.WorkOrder); ok {
			region = j.Region
		}
		recs = append(recs, coremetrics.PlacementRecord{
			RunID: runID, Mode: mode,
			WorkOrder:    p.WorkOrder,
			TechnicianID: p.TechnicianID,
			Region:       region,
			Date:         p.Date,
			WorkHours:    p.DurationHours,
			DriveHours:   p.DriveHours,
			Forced:       p.Forced,
			Time:         now,
		})
	}
	if err := s.sink.RecordPlacements(recs); err != nil {
		s.log.Errorf("placement metrics: %v", err)
	}
	if rec, ok := s.sink.(coremetrics.RunSummaryRecorder); ok {
		err := rec.RecordRunSummary(coremetrics.RunSummary{
			RunID: runID, Mode: mode, Metrics: res.Metrics,
			Duration: time.Since(started), Time: now,
		})
		if err != nil {
			s.log.Errorf("run summary metrics: %v", err)
		}
	}
}

// Validate gates candidate assignments against the snapshot.
func (s *Service) Validate(snap *model.Snapshot, candidates []model.ScheduledJob) []validate.Outcome {
	return s.validator.Validate(snap, candidates)
}

// Suggest ranks unscheduled jobs for a technician day.
func (s *Service) Suggest(snap *model.Snapshot, techID string, date time.Time, limit int) ([]suggest.Suggestion, error) {
	return s.suggester.Suggest(snap, techID, date, limit)
}

// Close releases the service's external connections.
func (s *Service) Close() {
	s.notifier.Close()
	s.bus.Close()
}
