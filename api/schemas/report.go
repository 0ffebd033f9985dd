package schemas

import "time"

// -- Report Schemas --

// Statistics is the aggregate reduction over a scored batch. Percentages are
// count/total*100 rounded to one decimal; AverageScore is rounded to two.
// An empty batch yields the zero value (all counts 0, average 0.0).
type Statistics struct {
	Total      int `json:"total"`
	HighRisk   int `json:"high_risk"`
	MediumRisk int `json:"medium_risk"`
	LowRisk    int `json:"low_risk"`
	Unknown    int `json:"unknown"`

	AverageScore float64 `json:"average_score"`

	HighRiskPct   float64 `json:"high_risk_pct"`
	MediumRiskPct float64 `json:"medium_risk_pct"`
	LowRiskPct    float64 `json:"low_risk_pct"`
	UnknownPct    float64 `json:"unknown_pct"`
}

// ValueCount is one entry of a top-N ranking: a distinct value and how many
// rows carried it.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DatasetSummary describes the cleaned input before any risk assessment:
// cardinalities plus top-10 rankings of the most common countries, ports,
// and ISPs.
type DatasetSummary struct {
	TotalRecords int `json:"total_records"`
	UniqueIPs    int `json:"unique_ips"`
	Countries    int `json:"countries"`
	Ports        int `json:"ports"`

	TopCountries []ValueCount `json:"top_countries,omitempty"`
	TopPorts     []ValueCount `json:"top_ports,omitempty"`
	TopISPs      []ValueCount `json:"top_isps,omitempty"`
}

// AnalysisReport is the top-level envelope for one pipeline run: the scored
// nodes together with everything the presentation layer needs to render the
// result. Nothing in it is persisted; the envelope lives for one session.
type AnalysisReport struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source,omitempty"` // Input file path, or "lookup" for single-IP runs.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	NodeCount   int  `json:"node_count"`
	APICalls    int  `json:"api_calls"`     // Network lookups actually performed.
	UsedNetwork bool `json:"used_network"`  // False for heuristic-only runs.

	Nodes      []Node         `json:"nodes"`
	Statistics Statistics     `json:"statistics"`
	Summary    DatasetSummary `json:"summary"`
}
