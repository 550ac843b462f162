package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// findFamily gathers the registry and returns the named family, or nil.
func findFamily(reg *prometheus.Registry, name string) *dto.MetricFamily {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry and options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.players.Set(3)

			Convey("Then metrics are registered under the configured names", func() {
				f := findFamily(registry, "test_unit_players")
				So(f, ShouldNotBeNil)
				So(f.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 3)
				So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording mutations", func() {
			RecordMutation("log_event", "ok", 0.4)
			RecordMutation("log_event", "not_found", 0.1)

			f := findFamily(GetRegistry(), "fantasy_league_mutations_total")
			So(f, ShouldNotBeNil)
			So(len(f.GetMetric()), ShouldBeGreaterThanOrEqualTo, 2)
		})

		Convey("When updating league size gauges", func() {
			UpdateLeagueSize(2, 5, 190, 12)

			So(findFamily(GetRegistry(), "fantasy_league_players").GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 2)
			So(findFamily(GetRegistry(), "fantasy_league_logged_events").GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 12)
		})

		Convey("When recording persistence activity", func() {
			UpdateSavePending(true)
			So(findFamily(GetRegistry(), "fantasy_league_persistence_pending").GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 1)

			UpdateSavePending(false)
			So(findFamily(GetRegistry(), "fantasy_league_persistence_pending").GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 0)

			So(func() {
				RecordSave("file", "ok", 3)
				UpdateLastSaved(1_700_000_000)
				UpdateQueueDepth(1)
				RecordQueueEnqueue()
				RecordQueueCoalesced()
				RecordDuplicateSubmission()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("/api/players", "GET", "200")
				RecordHTTPRequestDuration("/api/players", "GET", "200", 1.5)
				RecordErrorByComponent("saver", "persistence")
				RecordErrorByType("validation", "warning")
				RecordErrorByEndpoint("/api/players", "POST", "validation")
				RecordErrorLatency("http", "validation", 0.2)
			}, ShouldNotPanic)
		})
	})
}
