package models

import (
	"database/sql"
	"fmt"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TaskStats is the summary behind GET /api/tasks/stats. CompletionRate
// is a one-decimal percentage string, or the number 0 when the user
// has no tasks at all.
type TaskStats struct {
	Total          int           `json:"total"`
	Completed      int           `json:"completed"`
	CompletionRate interface{}   `json:"completionRate"`
	ByStatus       []StatusCount `json:"byStatus"`
}

type TimeStats struct {
	TotalTime int     `json:"totalTime"`
	AvgTime   float64 `json:"avgTime"`
}

type DashboardTasks struct {
	ByStatus          []StatusCount   `json:"byStatus"`
	ByPriority        []PriorityCount `json:"byPriority"`
	RecentCompletions []DateCount     `json:"recentCompletions"`
}

type DashboardProjects struct {
	ByStatus []StatusCount `json:"byStatus"`
}

type Dashboard struct {
	Tasks    DashboardTasks    `json:"tasks"`
	Projects DashboardProjects `json:"projects"`
	Time     TimeStats         `json:"time"`
}

type DailyProductivity struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

type WeeklyProductivity struct {
	Year      int `json:"year"`
	Week      int `json:"week"`
	Created   int `json:"created"`
	Completed int `json:"completed"`
}

type Productivity struct {
	Daily  []DailyProductivity  `json:"daily"`
	Weekly []WeeklyProductivity `json:"weekly"`
}

type keyCount struct {
	key   string
	count int
}

// queryCounts runs a two-column (key, count) group-by query.
func queryCounts(db *sql.DB, query string, args ...interface{}) ([]keyCount, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []keyCount{}
	for rows.Next() {
		var kc keyCount
		if err := rows.Scan(&kc.key, &kc.count); err != nil {
			return nil, err
		}
		counts = append(counts, kc)
	}
	return counts, rows.Err()
}

// GetTaskStats summarizes the user's tasks by status. Totals are
// derived from the same grouped counts, so the summary is internally
// consistent even when writes land between aggregation calls.
func GetTaskStats(db *sql.DB, userUID string) (*TaskStats, error) {
	counts, err := queryCounts(db, `
        SELECT status, COUNT(*)
        FROM tasks
        WHERE user_uid = $1
        GROUP BY status
        ORDER BY status`, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task stats: %w", err)
	}

	stats := &TaskStats{ByStatus: []StatusCount{}}
	for _, kc := range counts {
		stats.ByStatus = append(stats.ByStatus, StatusCount{Status: kc.key, Count: kc.count})
		stats.Total += kc.count
		if kc.key == StatusCompleted {
			stats.Completed = kc.count
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = fmt.Sprintf("%.1f", float64(stats.Completed)/float64(stats.Total)*100)
	} else {
		stats.CompletionRate = 0
	}
	return stats, nil
}

// GetDashboard computes the user-wide histograms and time totals. A
// user with no data gets zero-valued structures, never an error.
func GetDashboard(db *sql.DB, userUID string) (*Dashboard, error) {
	dashboard := &Dashboard{
		Tasks: DashboardTasks{
			ByStatus:          []StatusCount{},
			ByPriority:        []PriorityCount{},
			RecentCompletions: []DateCount{},
		},
		Projects: DashboardProjects{ByStatus: []StatusCount{}},
	}

	taskStatus, err := queryCounts(db, `
        SELECT status, COUNT(*)
        FROM tasks
        WHERE user_uid = $1
        GROUP BY status
        ORDER BY status`, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks by status: %w", err)
	}
	for _, kc := range taskStatus {
		dashboard.Tasks.ByStatus = append(dashboard.Tasks.ByStatus, StatusCount{Status: kc.key, Count: kc.count})
	}

	taskPriority, err := queryCounts(db, `
        SELECT priority, COUNT(*)
        FROM tasks
        WHERE user_uid = $1
        GROUP BY priority
        ORDER BY priority`, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks by priority: %w", err)
	}
	for _, kc := range taskPriority {
		dashboard.Tasks.ByPriority = append(dashboard.Tasks.ByPriority, PriorityCount{Priority: kc.key, Count: kc.count})
	}

	completions, err := queryCounts(db, `
        SELECT to_char(completed_at, 'YYYY-MM-DD') AS day, COUNT(*)
        FROM tasks
        WHERE user_uid = $1
          AND status = 'completed'
          AND completed_at >= NOW() - INTERVAL '7 days'
        GROUP BY day
        ORDER BY day`, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate recent completions: %w", err)
	}
	for _, kc := range completions {
		dashboard.Tasks.RecentCompletions = append(dashboard.Tasks.RecentCompletions, DateCount{Date: kc.key, Count: kc.count})
	}

	projectStatus, err := queryCounts(db, `
        SELECT status, COUNT(*)
        FROM projects
        WHERE user_uid = $1
        GROUP BY status
        ORDER BY status`, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate projects by status: %w", err)
	}
	for _, kc := range projectStatus {
		dashboard.Projects.ByStatus = append(dashboard.Projects.ByStatus, StatusCount{Status: kc.key, Count: kc.count})
	}

	err = db.QueryRow(`
        SELECT COALESCE(SUM(actual_time), 0), COALESCE(AVG(actual_time), 0)
        FROM tasks
        WHERE user_uid = $1 AND actual_time > 0`, userUID,
	).Scan(&dashboard.Time.TotalTime, &dashboard.Time.AvgTime)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate time tracking: %w", err)
	}

	return dashboard, nil
}

// GetProductivity returns created-vs-completed trends over tasks
// created within the lookback window. Non-positive windows fall back
// to the 30 day default. Weekly buckets use ISO week and ISO year.
func GetProductivity(db *sql.DB, userUID string, days int) (*Productivity, error) {
	if days <= 0 {
		days = 30
	}

	productivity := &Productivity{
		Daily:  []DailyProductivity{},
		Weekly: []WeeklyProductivity{},
	}

	dailyRows, err := db.Query(`
        SELECT to_char(created_at, 'YYYY-MM-DD') AS day,
               COUNT(*),
               COUNT(*) FILTER (WHERE status = 'completed')
        FROM tasks
        WHERE user_uid = $1
          AND created_at >= NOW() - ($2 * INTERVAL '1 day')
        GROUP BY day
        ORDER BY day`, userUID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily productivity: %w", err)
	}
	defer dailyRows.Close()

	for dailyRows.Next() {
		var point DailyProductivity
		if err := dailyRows.Scan(&point.Date, &point.Created, &point.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan daily productivity row: %w", err)
		}
		productivity.Daily = append(productivity.Daily, point)
	}
	if err := dailyRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily productivity rows: %w", err)
	}

	weeklyRows, err := db.Query(`
        SELECT EXTRACT(ISOYEAR FROM created_at)::int AS year,
               EXTRACT(WEEK FROM created_at)::int AS week,
               COUNT(*),
               COUNT(*) FILTER (WHERE status = 'completed')
        FROM tasks
        WHERE user_uid = $1
          AND created_at >= NOW() - ($2 * INTERVAL '1 day')
        GROUP BY year, week
        ORDER BY year, week`, userUID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate weekly productivity: %w", err)
	}
	defer weeklyRows.Close()

	for weeklyRows.Next() {
		var point WeeklyProductivity
		if err := weeklyRows.Scan(&point.Year, &point.Week, &point.Created, &point.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan weekly productivity row: %w", err)
		}
		productivity.Weekly = append(productivity.Weekly, point)
	}
	if err := weeklyRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read weekly productivity rows: %w", err)
	}

	return productivity, nil
}
