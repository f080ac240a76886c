package handlers

import (
	"log/slog"

	"github.com/Fantasim/looter/internal/report"
	"github.com/prometheus/client_golang/prometheus"
)

// ReportCollector exposes the current ledger totals as gauges. Each scrape
// re-reads the ledger, so values follow the last completed dispatch.
type ReportCollector struct {
	reader ReportReader

	items       *prometheus.Desc
	value       *prometheus.Desc
	accounts    *prometheus.Desc
	periodStart *prometheus.Desc
	up          *prometheus.Desc
}

// NewReportCollector builds a collector reading through reader.
func NewReportCollector(reader ReportReader) *ReportCollector {
	return &ReportCollector{
		reader: reader,
		items: prometheus.NewDesc("looter_report_items",
			"Items recorded in the current weekly period.", []string{"bucket"}, nil),
		value: prometheus.NewDesc("looter_report_value_dollars",
			"Summed market value recorded in the current weekly period.", []string{"bucket"}, nil),
		accounts: prometheus.NewDesc("looter_report_accounts",
			"Distinct accounts that sent items in the current weekly period.", nil, nil),
		periodStart: prometheus.NewDesc("looter_report_period_start_timestamp_seconds",
			"Start of the current weekly period.", nil, nil),
		up: prometheus.NewDesc("looter_report_up",
			"Whether the ledger could be read.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *ReportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.value
	ch <- c.accounts
	ch <- c.periodStart
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *ReportCollector) Collect(ch chan<- prometheus.Metric) {
	st, err := c.reader.Peek()
	if err != nil {
		slog.Debug("report collector skipped", "error", err)
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)

	for _, b := range bucketTotals(st) {
		ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(b.count), b.label)
		ch <- prometheus.MustNewConstMetric(c.value, prometheus.GaugeValue, b.value, b.label)
	}
	ch <- prometheus.MustNewConstMetric(c.accounts, prometheus.GaugeValue, float64(len(st.Accounts)))
	ch <- prometheus.MustNewConstMetric(c.periodStart, prometheus.GaugeValue, float64(st.PeriodStart.Unix()))
}

type bucketTotal struct {
	label string
	count int
	value float64
}

func bucketTotals(st *report.State) []bucketTotal {
	return []bucketTotal{
		{"cs2", st.TotalCs2Drops, st.TotalCs2DropValue},
		{"case", st.TotalCases, st.TotalCaseValue},
		{"skin", st.TotalSkins, st.TotalSkinValue},
		{"all_skins", st.TotalAllSkins, st.TotalAllSkinValue},
		{"another_drop", st.TotalAnotherDrops, st.TotalAnotherDropValue},
	}
}
