package schemas

// -- Node Schemas --

// RiskLevel is the categorical classification derived from a node's risk
// score. It is never assigned independently of the score; the risk engine
// recomputes both together.
type RiskLevel string

// Constants defining the standard risk levels for exit nodes.
const (
	RiskHigh    RiskLevel = "High"    // Score at or above the high threshold.
	RiskMedium  RiskLevel = "Medium"  // Score at or above the medium threshold.
	RiskLow     RiskLevel = "Low"     // Any positive score below the medium threshold.
	RiskUnknown RiskLevel = "Unknown" // Zero score, or a node not yet assessed.
)

// Valid reports whether l is one of the defined risk levels.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskHigh, RiskMedium, RiskLow, RiskUnknown:
		return true
	}
	return false
}

// Rank returns the sort order for l, most severe first. Unknown ranks last.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskHigh:
		return 0
	case RiskMedium:
		return 1
	case RiskLow:
		return 2
	default:
		return 3
	}
}

// Node is the canonical entity for one exit-node observation. It is built
// from a cleaned input row (or a single-IP lookup), mutated in place by the
// enrichment stage (which only fills gaps) and by the scoring stage (which
// recomputes the three risk fields from scratch on every call).
type Node struct {
	IP   string `json:"ip"`             // Required; validated IPv4 or IPv6 literal.
	Port int    `json:"port,omitempty"` // 0 means absent; valid range is 1-65535.

	Country string `json:"country,omitempty"` // ISO code or free text.
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`

	ASN string `json:"asn,omitempty"` // Autonomous system, e.g. "AS13335".
	ISP string `json:"isp,omitempty"` // Network owner description.

	// Observation timestamps are carried as opaque date-like strings; the
	// pipeline never parses them.
	FirstSeen string `json:"first_seen,omitempty"`
	LastSeen  string `json:"last_seen,omitempty"`

	// Coordinates are present together or not at all; a half-present pair is
	// normalized to absent during cleaning.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	RiskScore   float64   `json:"risk_score"`
	RiskLevel   RiskLevel `json:"risk_level"`
	RiskFactors []string  `json:"risk_factors"` // Ordered, human-readable rule explanations.
}

// NewNode returns a Node for ip with unassessed risk fields. Each call
// allocates a fresh RiskFactors slice; nodes never share one.
func NewNode(ip string) Node {
	return Node{
		IP:          ip,
		RiskLevel:   RiskUnknown,
		RiskFactors: make([]string, 0),
	}
}

// HasLocation reports whether the node already carries a complete location:
// country plus both coordinates. Enrichment skips such nodes entirely.
func (n *Node) HasLocation() bool {
	return n.Country != "" && n.Latitude != nil && n.Longitude != nil
}

// SetCoords stores a coordinate pair on the node.
func (n *Node) SetCoords(lat, lon float64) {
	n.Latitude = &lat
	n.Longitude = &lon
}
