package handlers

import (
	"net/http"
	"strconv"

	"taskflow-backend/models"
)

// DashboardHandler returns the user-wide histograms and time totals.
func DashboardHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	dashboard, err := models.GetDashboard(db, uid)
	if err != nil {
		respondError(w, err, "Not found", "Failed to compute dashboard analytics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "analytics": dashboard})
}

// ProductivityHandler returns daily and weekly created-vs-completed
// trends. The period query parameter is a lookback in days, default
// 30; anything unparsable falls back to the default.
func ProductivityHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	days := 30
	if period := r.URL.Query().Get("period"); period != "" {
		if parsed, err := strconv.Atoi(period); err == nil {
			days = parsed
		}
	}

	productivity, err := models.GetProductivity(db, uid, days)
	if err != nil {
		respondError(w, err, "Not found", "Failed to compute productivity trends")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "productivity": productivity})
}
