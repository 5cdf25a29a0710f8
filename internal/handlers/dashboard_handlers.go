package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"hunter/internal/scanner"
)

// threatLevelNames maps MISP threat_level_id values onto display labels.
var threatLevelNames = map[string]string{
	"1": "High",
	"2": "Medium",
	"3": "Low",
	"4": "Undefined",
}

// DashboardHandler aggregates remote events into the dashboard widgets.
type DashboardHandler struct {
	Scanner *scanner.Client
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(sc *scanner.Client) *DashboardHandler {
	return &DashboardHandler{Scanner: sc}
}

// Events handles GET /api/misp_events
// Proxies the scanner backend. A backend failure yields an empty list,
// never an error page.
func (h *DashboardHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}

	events := h.Scanner.FetchEventsSoft(r.Context(), limit)
	JSONResponse(w, map[string]interface{}{
		"misp_events": events,
		"count":       len(events),
	})
}

// tagCount pairs a tag name with its occurrence count.
type tagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats handles GET /api/dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	events := h.Scanner.FetchEventsSoft(r.Context(), 100)

	critical := 0
	distribution := map[string]int{"High": 0, "Medium": 0, "Low": 0, "Undefined": 0}
	weekdays := [7]int{} // Monday..Sunday
	tagCounts := map[string]int{}

	for _, e := range events {
		if e.ThreatLevelID == "1" {
			critical++
		}

		name := threatLevelNames[e.ThreatLevelID]
		if name == "" {
			name = "Undefined"
		}
		distribution[name]++

		if t, err := time.Parse("2006-01-02", e.Date); err == nil {
			// time.Weekday starts at Sunday; shift to Monday-first
			weekdays[(int(t.Weekday())+6)%7]++
		}

		for _, tag := range e.Tags {
			if tag.Name != "" {
				tagCounts[tag.Name]++
			}
		}
	}

	topTags := make([]tagCount, 0, len(tagCounts))
	for name, count := range tagCounts {
		topTags = append(topTags, tagCount{Name: name, Count: count})
	}
	sort.Slice(topTags, func(i, j int) bool {
		if topTags[i].Count != topTags[j].Count {
			return topTags[i].Count > topTags[j].Count
		}
		return topTags[i].Name < topTags[j].Name
	})
	if len(topTags) > 8 {
		topTags = topTags[:8]
	}

	JSONResponse(w, map[string]interface{}{
		"total_events":        len(events),
		"critical_events":     critical,
		"threat_distribution": distribution,
		"weekday_trend": map[string]interface{}{
			"labels": []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
			"counts": weekdays,
		},
		"top_tags": topTags,
		"loading":  h.Scanner.Loading(),
	})
}
