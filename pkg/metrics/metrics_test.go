package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then its collectors are registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.framesProcessed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("replay"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"device": "capture0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the namespace and labels are applied", func() {
				manager.calibrations.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_replay_calibrations_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "capture0")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Scene counters accumulate", func() {
			before := testutil.ToFloat64(globalManager.sceneExits.WithLabelValues("result_gears", "analyzed"))
			RecordSceneExit("result_gears", "analyzed")
			RecordSceneExit("result_gears", "analyzed")
			after := testutil.ToFloat64(globalManager.sceneExits.WithLabelValues("result_gears", "analyzed"))
			So(after-before, ShouldEqual, 2)
		})

		Convey("Presence outcomes are split by label", func() {
			before := testutil.ToFloat64(globalManager.presenceMatches.WithLabelValues("result_gears", "false"))
			RecordPresence("result_gears", false)
			So(testutil.ToFloat64(globalManager.presenceMatches.WithLabelValues("result_gears", "false"))-before, ShouldEqual, 1)
		})

		Convey("Gauges hold the last value", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(3)
			UpdateResultsTotal(12)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
			So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
			So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 3)
			So(testutil.ToFloat64(globalManager.resultsTotal), ShouldEqual, 12)
		})

		Convey("The remaining recorders do not panic", func() {
			So(func() {
				RecordFrameProcessed(1.5)
				RecordFrameMissing()
				RecordStateTransition("result_gears", "default", "tracking")
				RecordAnalysis("final", true, 3)
				RecordAnalysis("provisional", false, 2)
				RecordRecognizerFailure("level")
				RecordCalibration()
				RecordNotificationEnqueued("still")
				RecordNotificationDropped("still", "shed")
				RecordNotificationDispatched("complete")
				RecordNotificationDuplicate()
				RecordSinkError("repository")
				RecordResultStored()
				RecordStoreLatency("save", 0.3)
				RecordStoreError("save")
				RecordHTTPRequest("results", "GET", "200")
				RecordHTTPRequestDuration("results", "GET", "200", 1)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("The registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
