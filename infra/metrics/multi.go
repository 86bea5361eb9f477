package metrics

import coremetrics "github.com/fieldops/fieldsched/core/metrics"

// MultiSink fans placement records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlacements forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPlacements(recs []coremetrics.PlacementRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlacements(recs); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary forwards the summary to every sink that records them.
func (m *MultiSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.RunSummaryRecorder); ok {
			if err := rec.RecordRunSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}
