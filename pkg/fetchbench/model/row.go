package model

// ReportRow is one line of the CSV report: one protocol's half of a run.
// MissedDeadlines, CPU and Memory are reserved and always empty.
type ReportRow struct {
	Protocol    string `csv:"Protocol" bigquery:"protocol"`
	Scenario    string `csv:"Scenario" bigquery:"scenario"`
	Concurrency int    `csv:"Concurrency" bigquery:"concurrency"`

	LatencyAvg float64 `csv:"Latency Avg (ms)" bigquery:"latency_avg_ms"`
	LatencyMin float64 `csv:"Latency Min (ms)" bigquery:"latency_min_ms"`
	LatencyMed float64 `csv:"Latency Med (ms)" bigquery:"latency_med_ms"`
	LatencyMax float64 `csv:"Latency Max (ms)" bigquery:"latency_max_ms"`
	LatencyP90 float64 `csv:"Latency P(90) (ms)" bigquery:"latency_p90_ms"`
	LatencyP95 float64 `csv:"Latency P(95) (ms)" bigquery:"latency_p95_ms"`

	BandwidthAvg float64 `csv:"Bandwidth (MB/s) Avg" bigquery:"bandwidth_avg_mbps"`
	BandwidthMin float64 `csv:"Bandwidth (MB/s) Min" bigquery:"bandwidth_min_mbps"`
	BandwidthMed float64 `csv:"Bandwidth (MB/s) Med" bigquery:"bandwidth_med_mbps"`
	BandwidthMax float64 `csv:"Bandwidth (MB/s) Max" bigquery:"bandwidth_max_mbps"`
	BandwidthP90 float64 `csv:"Bandwidth (MB/s) P(90)" bigquery:"bandwidth_p90_mbps"`
	BandwidthP95 float64 `csv:"Bandwidth (MB/s) P(95)" bigquery:"bandwidth_p95_mbps"`

	SuccessRate float64 `csv:"Success Rate" bigquery:"success_rate"`

	MissedDeadlines string `csv:"Missed Deadlines" bigquery:"missed_deadlines"`
	CPU             string `csv:"CPU" bigquery:"cpu"`
	Memory          string `csv:"Memory" bigquery:"memory"`
}
