package models

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTaskStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("GROUP BY status").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("completed", 2).
			AddRow("in-progress", 1).
			AddRow("todo", 1))

	stats, err := GetTaskStats(db, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, "50.0", stats.CompletionRate)
	assert.Len(t, stats.ByStatus, 3)
}

func TestGetTaskStatsRounding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("GROUP BY status").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("completed", 1).
			AddRow("todo", 2))

	stats, err := GetTaskStats(db, "u1")
	require.NoError(t, err)
	assert.Equal(t, "33.3", stats.CompletionRate)
}

func TestGetTaskStatsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("GROUP BY status").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

	stats, err := GetTaskStats(db, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	// With no tasks the rate is the literal number 0, not "0.0".
	assert.Equal(t, 0, stats.CompletionRate)
	assert.Equal(t, []StatusCount{}, stats.ByStatus)
}

func TestGetDashboardEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM tasks").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery("GROUP BY priority").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"priority", "count"}))
	mock.ExpectQuery("completed_at").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}))
	mock.ExpectQuery("FROM projects").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery("SUM").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"total", "avg"}).AddRow(0, 0.0))

	dashboard, err := GetDashboard(db, "nobody")
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{}, dashboard.Tasks.ByStatus)
	assert.Equal(t, []PriorityCount{}, dashboard.Tasks.ByPriority)
	assert.Equal(t, []DateCount{}, dashboard.Tasks.RecentCompletions)
	assert.Equal(t, []StatusCount{}, dashboard.Projects.ByStatus)
	assert.Equal(t, 0, dashboard.Time.TotalTime)
	assert.Equal(t, 0.0, dashboard.Time.AvgTime)
}

func TestGetDashboard(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM tasks").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("completed", 3).
			AddRow("todo", 2))
	mock.ExpectQuery("GROUP BY priority").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"priority", "count"}).
			AddRow("high", 1).
			AddRow("medium", 4))
	mock.ExpectQuery("completed_at").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).
			AddRow("2026-08-25", 1).
			AddRow("2026-08-27", 2))
	mock.ExpectQuery("FROM projects").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("active", 2))
	mock.ExpectQuery("SUM").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "avg"}).AddRow(180, 60.0))

	dashboard, err := GetDashboard(db, "u1")
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{{"completed", 3}, {"todo", 2}}, dashboard.Tasks.ByStatus)
	assert.Equal(t, []PriorityCount{{"high", 1}, {"medium", 4}}, dashboard.Tasks.ByPriority)
	assert.Equal(t, []DateCount{{"2026-08-25", 1}, {"2026-08-27", 2}}, dashboard.Tasks.RecentCompletions)
	assert.Equal(t, []StatusCount{{"active", 2}}, dashboard.Projects.ByStatus)
	assert.Equal(t, 180, dashboard.Time.TotalTime)
	assert.Equal(t, 60.0, dashboard.Time.AvgTime)
}

func TestGetProductivityEmptyWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("GROUP BY day").
		WithArgs("u1", 7).
		WillReturnRows(sqlmock.NewRows([]string{"day", "created", "completed"}))
	mock.ExpectQuery("GROUP BY year, week").
		WithArgs("u1", 7).
		WillReturnRows(sqlmock.NewRows([]string{"year", "week", "created", "completed"}))

	productivity, err := GetProductivity(db, "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, []DailyProductivity{}, productivity.Daily)
	assert.Equal(t, []WeeklyProductivity{}, productivity.Weekly)
}

func TestGetProductivityDefaultsPeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Non-positive lookback falls back to 30 days.
	mock.ExpectQuery("GROUP BY day").
		WithArgs("u1", 30).
		WillReturnRows(sqlmock.NewRows([]string{"day", "created", "completed"}))
	mock.ExpectQuery("GROUP BY year, week").
		WithArgs("u1", 30).
		WillReturnRows(sqlmock.NewRows([]string{"year", "week", "created", "completed"}))

	_, err = GetProductivity(db, "u1", -4)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductivityTrends(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("GROUP BY day").
		WithArgs("u1", 30).
		WillReturnRows(sqlmock.NewRows([]string{"day", "created", "completed"}).
			AddRow("2026-08-20", 3, 1).
			AddRow("2026-08-21", 2, 2))
	mock.ExpectQuery("GROUP BY year, week").
		WithArgs("u1", 30).
		WillReturnRows(sqlmock.NewRows([]string{"year", "week", "created", "completed"}).
			AddRow(2026, 34, 4, 2).
			AddRow(2026, 35, 1, 1))

	productivity, err := GetProductivity(db, "u1", 30)
	require.NoError(t, err)
	assert.Equal(t, []DailyProductivity{
		{Date: "2026-08-20", Created: 3, Completed: 1},
		{Date: "2026-08-21", Created: 2, Completed: 2},
	}, productivity.Daily)
	assert.Equal(t, []WeeklyProductivity{
		{Year: 2026, Week: 34, Created: 4, Completed: 2},
		{Year: 2026, Week: 35, Created: 1, Completed: 1},
	}, productivity.Weekly)
}
