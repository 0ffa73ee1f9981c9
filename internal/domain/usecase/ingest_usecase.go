package usecase

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"esgmonitor/internal/domain/entity"
	"esgmonitor/internal/domain/zone"
	"esgmonitor/internal/metrics"
	"esgmonitor/pkg/utils"
)

type ReadingWriter interface {
	InsertBatch(ctx context.Context, readings []entity.SensorReading) error
	ListSpatial(ctx context.Context) ([]entity.SensorReading, error)
}

type ReportUploader interface {
	UploadReport(ctx context.Context, key string, data []byte) error
}

type ReportRecorder interface {
	SetLatestReportKey(ctx context.Context, key string) error
}

type IngestUseCase struct {
	Sensors  ReadingWriter
	Reports  ReportUploader
	Recorder ReportRecorder
	MaxBatch int
}

func NewIngestUseCase(sensors ReadingWriter, reports ReportUploader, recorder ReportRecorder, maxBatch int) *IngestUseCase {
	return &IngestUseCase{
		Sensors:  sensors,
		Reports:  reports,
		Recorder: recorder,
		MaxBatch: maxBatch,
	}
}

// ProcessBatch validates and stores one queued reading batch. Invalid
// rows and oversized batches are dropped, not retried; only a storage
// failure comes back as an error so the delivery can be requeued.
func (u *IngestUseCase) ProcessBatch(ctx context.Context, msg *entity.ReadingBatchMessage) (int, error) {
	if msg == nil || len(msg.Readings) == 0 {
		return 0, nil
	}
	if u.MaxBatch > 0 && len(msg.Readings) > u.MaxBatch {
		log.Printf("batch %s: dropped, %d readings exceed maximum %d", msg.BatchID, len(msg.Readings), u.MaxBatch)
		metrics.ReadingsRejected.Add(float64(len(msg.Readings)))
		return 0, nil
	}

	now := time.Now().UTC()
	valid := make([]entity.SensorReading, 0, len(msg.Readings))
	rejected := 0
	for _, r := range msg.Readings {
		if r.SensorID == "" || !r.ComplianceStatus.IsValid() {
			rejected++
			continue
		}
		if r.TimestampUTC.IsZero() {
			r.TimestampUTC = now
		}
		valid = append(valid, r)
	}
	if rejected > 0 {
		log.Printf("batch %s: dropped %d invalid readings", msg.BatchID, rejected)
		metrics.ReadingsRejected.Add(float64(rejected))
	}
	if len(valid) == 0 {
		return 0, nil
	}

	if err := u.Sensors.InsertBatch(ctx, valid); err != nil {
		return 0, err
	}
	metrics.ReadingsIngested.Add(float64(len(valid)))
	return len(valid), nil
}

var reportHeader = []string{
	"zone", "total_sensors", "compliant", "off_target", "warning", "critical", "compliance_percentage",
}

// ArchiveComplianceReport renders the current zone compliance summary
// as CSV and uploads it for the audit trail. An empty reading set still
// produces a header-only report.
func (u *IngestUseCase) ArchiveComplianceReport(ctx context.Context, now time.Time) (string, error) {
	readings, err := u.Sensors.ListSpatial(ctx)
	if err != nil {
		return "", err
	}
	summaries := zone.Summarize(readings)

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			string(s.Zone),
			strconv.Itoa(s.TotalSensors),
			strconv.Itoa(s.CompliantCount),
			strconv.Itoa(s.OffTargetCount),
			strconv.Itoa(s.WarningCount),
			strconv.Itoa(s.CriticalCount),
			strconv.FormatFloat(s.CompliancePercentage, 'f', 1, 64),
		})
		metrics.ZoneCompliancePct.WithLabelValues(string(s.Zone)).Set(s.CompliancePercentage)
	}

	data, err := utils.RenderCSV(reportHeader, rows)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/zone-compliance/%s.csv", now.UTC().Format("20060102T150405Z"))
	if err := u.Reports.UploadReport(ctx, key, data); err != nil {
		return "", err
	}
	if err := u.Recorder.SetLatestReportKey(ctx, key); err != nil {
		log.Printf("record latest report key: %v", err)
	}

	metrics.ReportsArchived.Inc()
	log.Printf("archived zone compliance report %s (%d zones)", key, len(summaries))
	return key, nil
}
