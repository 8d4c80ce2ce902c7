package metrics

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/himawarilapse/himawarilapse/archiver/internal/stats"
)

// Metric names written to the textfile.
const (
	namespace = "himawari_archiver_"

	metricIterations  = namespace + "iterations_total"
	metricArchived    = namespace + "frames_archived_total"
	metricFetchFailed = namespace + "fetch_failures_total"
	metricCopyFailed  = namespace + "copy_failures_total"
	metricLastSuccess = namespace + "last_success_timestamp_seconds"
	metricSuccessPct  = namespace + "success_ratio"
	metricRunInfo     = namespace + "run_info"
)

// Textfile writes run statistics in the Prometheus text exposition format,
// for node_exporter's textfile collector.
type Textfile struct {
	Path string
}

// Write renders snap to t.Path. The file is replaced atomically so a
// collector never reads a half-written exposition.
func (t *Textfile) Write(snap stats.Snapshot, runID string) error {
	var buf bytes.Buffer
	for _, mf := range Families(snap, runID) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}

	dir := filepath.Dir(t.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.Path)+".*")
	if err != nil {
		return fmt.Errorf("metrics: create temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics: rename into place: %w", err)
	}
	return nil
}

// Families converts snap into metric families, ordered by name.
func Families(snap stats.Snapshot, runID string) []*dto.MetricFamily {
	var lastSuccess float64
	if !snap.LastSuccess.IsZero() {
		lastSuccess = float64(snap.LastSuccess.UnixNano()) / 1e9
	}

	return []*dto.MetricFamily{
		counter(metricCopyFailed, "Iterations whose snapshot could not be copied.", float64(snap.CopyFailed)),
		counter(metricFetchFailed, "Iterations whose fetch step failed.", float64(snap.FetchFailed)),
		counter(metricArchived, "Frames written to the save directory.", float64(snap.Archived)),
		counter(metricIterations, "Iterations completed in this run.", float64(snap.Iterations)),
		gauge(metricLastSuccess, "Unix time of the last archived frame, 0 if none.", lastSuccess),
		{
			Name: proto.String(metricRunInfo),
			Help: proto.String("Identifies the current archiver run."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Label: []*dto.LabelPair{{Name: proto.String("run_id"), Value: proto.String(runID)}},
				Gauge: &dto.Gauge{Value: proto.Float64(1)},
			}},
		},
		gauge(metricSuccessPct, "Share of the last 20 iterations that archived a frame (0-1).", snap.SuccessPct/100),
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}
