package models

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestValidateTaskInput(t *testing.T) {
	validProject := uuid.New().String()

	tests := []struct {
		name      string
		input     CreateTaskInput
		wantField string
	}{
		{"missing title", CreateTaskInput{Title: "  ", Status: "todo", Priority: "medium"}, "title"},
		{"invalid status", CreateTaskInput{Title: "t", Status: "done", Priority: "medium"}, "status"},
		{"invalid priority", CreateTaskInput{Title: "t", Status: "todo", Priority: "extreme"}, "priority"},
		{"negative estimate", CreateTaskInput{Title: "t", Status: "todo", Priority: "low", EstimatedTime: -5}, "estimatedTime"},
		{"negative actual", CreateTaskInput{Title: "t", Status: "todo", Priority: "low", ActualTime: -1}, "actualTime"},
		{"malformed project ref", CreateTaskInput{Title: "t", Status: "todo", Priority: "low", Project: strPtr("not-a-uuid")}, "project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTaskInput(&tt.input)
			require.Error(t, err)
			ve, ok := IsValidation(err)
			require.True(t, ok)
			fields := make([]string, len(ve.Fields))
			for i, f := range ve.Fields {
				fields[i] = f.Field
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}

	t.Run("valid input passes", func(t *testing.T) {
		input := CreateTaskInput{
			Title:    "Write report",
			Status:   "in-progress",
			Priority: "urgent",
			Project:  &validProject,
			Tags:     []string{"work"},
		}
		assert.NoError(t, validateTaskInput(&input))
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `foo\_bar`, escapeLike("foo_bar"))
	assert.Equal(t, `c:\\temp`, escapeLike(`c:\temp`))
	assert.Equal(t, "plain text", escapeLike("plain text"))
}

func TestBuildTaskListQuery(t *testing.T) {
	t.Run("no filters returns the owner-scoped set", func(t *testing.T) {
		query, params := buildTaskListQuery("u1", TaskFilter{})
		assert.Contains(t, query, "WHERE t.user_uid = $1")
		assert.NotContains(t, query, "AND")
		assert.Contains(t, query, "ORDER BY t.created_at DESC")
		assert.Equal(t, []interface{}{"u1"}, params)
	})

	t.Run("all criteria are ANDed", func(t *testing.T) {
		projectID := uuid.New().String()
		query, params := buildTaskListQuery("u1", TaskFilter{
			Status:    "todo",
			ProjectID: projectID,
			Priority:  "high",
			Search:    "report",
		})
		assert.Contains(t, query, "AND t.status = $2")
		assert.Contains(t, query, "AND t.project_id = $3")
		assert.Contains(t, query, "AND t.priority = $4")
		assert.Contains(t, query, "t.title ILIKE $5")
		assert.Contains(t, query, "t.description ILIKE $5")
		assert.Equal(t, []interface{}{"u1", "todo", projectID, "high", "%report%"}, params)
	})

	t.Run("search metacharacters are neutralized", func(t *testing.T) {
		query, params := buildTaskListQuery("u1", TaskFilter{Search: "50%_done"})
		assert.Contains(t, query, `ESCAPE '\'`)
		require.Len(t, params, 2)
		assert.Equal(t, `%50\%\_done%`, params[1])
	})
}

func TestListTasksRejectsUnknownEnums(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = ListTasks(db, "u1", TaskFilter{Status: "archived"})
	_, ok := IsValidation(err)
	assert.True(t, ok, "unknown status must be a validation failure, got %v", err)

	_, err = ListTasks(db, "u1", TaskFilter{Priority: "asap"})
	_, ok = IsValidation(err)
	assert.True(t, ok, "unknown priority must be a validation failure, got %v", err)
}

func TestCreateTaskDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO tasks").
		WillReturnRows(sqlmock.NewRows([]string{"completed_at", "created_at", "updated_at"}).
			AddRow(nil, now, now))

	task, err := CreateTask(db, "u1", &CreateTaskInput{Title: "New task"})
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, "medium", task.Priority)
	assert.Equal(t, "u1", task.UserUID)
	assert.NotEmpty(t, task.ID)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, []string{}, task.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTaskCompletedStampsTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("CASE WHEN $5 = 'completed' THEN NOW() END")).
		WillReturnRows(sqlmock.NewRows([]string{"completed_at", "created_at", "updated_at"}).
			AddRow(now, now, now))

	task, err := CreateTask(db, "u1", &CreateTaskInput{Title: "Done already", Status: StatusCompleted})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildTaskUpdateQuery(t *testing.T) {
	t.Run("transition into completed stamps once atomically", func(t *testing.T) {
		query, _ := buildTaskUpdateQuery("t1", "u1", &TaskPatch{Status: strPtr(StatusCompleted)})
		assert.Contains(t, query, "status = $1")
		assert.Contains(t, query, "completed_at = COALESCE(completed_at, NOW())")
	})

	t.Run("moving away from completed never clears the stamp", func(t *testing.T) {
		query, _ := buildTaskUpdateQuery("t1", "u1", &TaskPatch{Status: strPtr(StatusTodo)})
		assert.NotContains(t, query, "completed_at")
	})

	t.Run("empty patch only refreshes updated_at", func(t *testing.T) {
		query, params := buildTaskUpdateQuery("t1", "u1", &TaskPatch{})
		assert.True(t, strings.HasPrefix(query, "UPDATE tasks SET updated_at = NOW() WHERE id = $1 AND user_uid = $2"))
		assert.Equal(t, []interface{}{"t1", "u1"}, params)
	})

	t.Run("only supplied fields are merged", func(t *testing.T) {
		query, params := buildTaskUpdateQuery("t1", "u1", &TaskPatch{
			Priority:   strPtr("urgent"),
			ActualTime: intPtr(90),
		})
		assert.Contains(t, query, "priority = $1")
		assert.Contains(t, query, "actual_time = $2")
		assert.NotContains(t, query, "title")
		assert.NotContains(t, query, "status")
		assert.Equal(t, []interface{}{"urgent", 90, "t1", "u1"}, params)
	})

	t.Run("empty project reference clears the weak ref", func(t *testing.T) {
		query, params := buildTaskUpdateQuery("t1", "u1", &TaskPatch{Project: strPtr("")})
		assert.Contains(t, query, "project_id = $1")
		assert.Nil(t, params[0])
	})
}

func TestUpdateTaskNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UPDATE tasks SET").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = UpdateTask(db, "missing", "u1", &TaskPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTaskReturnsMergedRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	taskID := uuid.New().String()
	rows := sqlmock.NewRows([]string{
		"id", "user_uid", "title", "description", "status", "priority",
		"due_date", "project_id", "tags", "estimated_time", "actual_time",
		"completed_at", "created_at", "updated_at",
	}).AddRow(taskID, "u1", "Ship it", "", StatusCompleted, "high",
		nil, nil, "{release}", 120, 90, now, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("completed_at = COALESCE(completed_at, NOW())")).
		WillReturnRows(rows)

	task, err := UpdateTask(db, taskID, "u1", &TaskPatch{Status: strPtr(StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, []string{"release"}, task.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTaskNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM tasks WHERE id").
		WithArgs("t1", "someone-else").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = DeleteTask(db, "t1", "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReapOrphanTasks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM tasks t").
		WillReturnResult(sqlmock.NewResult(0, 2))

	reaped, err := ReapOrphanTasks(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reaped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
