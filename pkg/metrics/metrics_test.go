package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("alloc"),
				WithHistogramBuckets([]float64{1, 2}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered", func() {
				So(m, ShouldNotBeNil)
				m.RecordTeamAllocated(1.5)
				count, err := testutil.GatherAndCount(registry, "test_alloc_teams_allocated_total")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording assigned numbers by pass", func() {
			m.AddNumbersAssigned(PassImpact, 2)
			m.AddNumbersAssigned(PassRange, 5)
			m.AddNumbersAssigned(PassRange, 0)

			Convey("Then each pass is counted separately", func() {
				So(testutil.ToFloat64(m.numbersAssigned.WithLabelValues(PassImpact)), ShouldEqual, 2)
				So(testutil.ToFloat64(m.numbersAssigned.WithLabelValues(PassRange)), ShouldEqual, 5)
			})
		})

		Convey("When recording forced duplicates", func() {
			m.AddForcedDuplicates(3)
			m.AddForcedDuplicates(-1)

			Convey("Then both the counter and the forced pass grow", func() {
				So(testutil.ToFloat64(m.forcedDuplicates), ShouldEqual, 3)
				So(testutil.ToFloat64(m.numbersAssigned.WithLabelValues(PassForced)), ShouldEqual, 3)
			})
		})

		Convey("When recording unassigned players", func() {
			m.AddUnassigned(21, 4)

			Convey("Then they are labelled by position", func() {
				So(testutil.ToFloat64(m.unassignedPlayers.WithLabelValues("21")), ShouldEqual, 4)
			})
		})

		Convey("When recording template outcomes and runs", func() {
			m.AddTemplates(3, 2)
			m.AddTemplates(0, -1)
			m.RecordRun(120, 35, 1700000000)
			m.RecordRunError("config")
			m.UpdateWorkerCount(8)

			Convey("Then the values are visible", func() {
				So(testutil.ToFloat64(m.templatesApplied), ShouldEqual, 3)
				So(testutil.ToFloat64(m.templatesNotFound), ShouldEqual, 2)
				So(testutil.ToFloat64(m.rowsProcessed), ShouldEqual, 120)
				So(testutil.ToFloat64(m.lastRunUnix), ShouldEqual, 1700000000)
				So(testutil.ToFloat64(m.runErrors.WithLabelValues("config")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.workerCount), ShouldEqual, 8)
			})
		})

		Convey("When updating the queue", func() {
			m.UpdateQueue(3, 10)
			m.RecordQueueRejected("full")

			Convey("Then depth, capacity and rejections are visible", func() {
				So(testutil.ToFloat64(m.queueDepth), ShouldEqual, 3)
				So(testutil.ToFloat64(m.queueCapacity), ShouldEqual, 10)
				So(testutil.ToFloat64(m.queueRejected.WithLabelValues("full")), ShouldEqual, 1)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then the package helpers do not panic", func() {
			So(func() {
				RecordTeamAllocated(0.4)
				AddNumbersAssigned(PassImpact, 1)
				AddForcedDuplicates(1)
				AddUnassigned(3, 1)
				AddTemplates(1, 1)
				RecordRun(1, 1, 1)
				RecordRunError("io")
				UpdateWorkerCount(2)
				UpdateQueue(0, 1)
				RecordQueueRejected("closed")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a textfile path", t, func() {
		path := filepath.Join(t.TempDir(), "rosterfix.prom")
		AddForcedDuplicates(1)

		Convey("When writing the registry", func() {
			err := WriteTextfile(path)

			Convey("Then the file contains the exposition", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(data), "rosterfix_jersey_forced_duplicates_total"), ShouldBeTrue)
			})
		})

		Convey("When the path is empty", func() {
			Convey("Then nothing is written", func() {
				So(WriteTextfile(""), ShouldBeNil)
			})
		})

		Convey("When the directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))

			Convey("Then an export error is returned", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrExportFailed), ShouldBeTrue)
			})
		})
	})
}
