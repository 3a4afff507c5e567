package project

// Stats summarizes a project collection by status.
// Total == Pending + Approved + Rejected + Unknown.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	// Unknown counts statuses the client does not recognize.
	Unknown int `json:"unknown"`
}

// ComputeStats counts projects by status.
func ComputeStats(projects []Project) Stats {
	stats := Stats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case StatusPending:
			stats.Pending++
		case StatusApproved:
			stats.Approved++
		case StatusRejected:
			stats.Rejected++
		default:
			stats.Unknown++
		}
	}
	return stats
}
