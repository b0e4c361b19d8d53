package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Task statuses. Transitions are free: any status can follow any other.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

var validTaskStatuses = map[string]bool{
	StatusTodo:       true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

var validPriorities = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
	"urgent": true,
}

type Task struct {
	ID            string     `json:"id"`
	UserUID       string     `json:"user"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	ProjectID     *string    `json:"project,omitempty"`
	ProjectName   *string    `json:"projectName,omitempty"`
	ProjectColor  *string    `json:"projectColor,omitempty"`
	Tags          []string   `json:"tags"`
	EstimatedTime int        `json:"estimatedTime"`
	ActualTime    int        `json:"actualTime"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CreateTaskInput carries the caller-settable fields of a new task.
type CreateTaskInput struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	Project       *string    `json:"project"`
	Tags          []string   `json:"tags"`
	EstimatedTime int        `json:"estimatedTime"`
	ActualTime    int        `json:"actualTime"`
}

// TaskPatch is the allow-list of mutable task fields. Nil means "leave
// unchanged"; for Project an empty string clears the reference.
type TaskPatch struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	Project       *string    `json:"project"`
	Tags          *[]string  `json:"tags"`
	EstimatedTime *int       `json:"estimatedTime"`
	ActualTime    *int       `json:"actualTime"`
}

// TaskFilter holds the optional list criteria. All supplied criteria
// are ANDed; an empty filter matches the whole owner-scoped set.
type TaskFilter struct {
	Status    string
	ProjectID string
	Priority  string
	Search    string
}

const taskColumns = `t.id, t.user_uid, t.title, t.description, t.status, t.priority,
       t.due_date, t.project_id, t.tags, t.estimated_time, t.actual_time,
       t.completed_at, t.created_at, t.updated_at`

const taskReturning = `id, user_uid, title, description, status, priority,
       due_date, project_id, tags, estimated_time, actual_time,
       completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner, withProject bool) (*Task, error) {
	var t Task
	var dueDate, completedAt sql.NullTime
	var projectID, projectName, projectColor sql.NullString

	dest := []interface{}{
		&t.ID, &t.UserUID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&dueDate, &projectID, pq.Array(&t.Tags), &t.EstimatedTime, &t.ActualTime,
		&completedAt, &t.CreatedAt, &t.UpdatedAt,
	}
	if withProject {
		dest = append(dest, &projectName, &projectColor)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if projectID.Valid {
		t.ProjectID = &projectID.String
	}
	if projectName.Valid {
		t.ProjectName = &projectName.String
	}
	if projectColor.Valid {
		t.ProjectColor = &projectColor.String
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func validateTaskInput(in *CreateTaskInput) error {
	var v validationErrors

	if strings.TrimSpace(in.Title) == "" {
		v.add("title", "Title is required")
	}
	if !validTaskStatuses[in.Status] {
		v.add("status", "Invalid status value")
	}
	if !validPriorities[in.Priority] {
		v.add("priority", "Invalid priority value")
	}
	if in.EstimatedTime < 0 {
		v.add("estimatedTime", "Estimated time cannot be negative")
	}
	if in.ActualTime < 0 {
		v.add("actualTime", "Actual time cannot be negative")
	}
	if in.Project != nil && *in.Project != "" {
		if _, err := uuid.Parse(*in.Project); err != nil {
			v.add("project", "Invalid project reference")
		}
	}
	return v.err()
}

// CreateTask validates and stores a new task owned by userUID. A task
// created directly in the completed status gets its completion
// timestamp stamped in the same insert.
func CreateTask(db *sql.DB, userUID string, in *CreateTaskInput) (*Task, error) {
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	if err := validateTaskInput(in); err != nil {
		return nil, err
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	var projectID interface{}
	if in.Project != nil && *in.Project != "" {
		projectID = *in.Project
	}

	query := `
        INSERT INTO tasks (id, user_uid, title, description, status, priority,
                           due_date, project_id, tags, estimated_time, actual_time,
                           completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
                CASE WHEN $5 = 'completed' THEN NOW() END)
        RETURNING completed_at, created_at, updated_at`

	task := &Task{
		ID:            uuid.New().String(),
		UserUID:       userUID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Status:        in.Status,
		Priority:      in.Priority,
		DueDate:       in.DueDate,
		Tags:          tags,
		EstimatedTime: in.EstimatedTime,
		ActualTime:    in.ActualTime,
	}
	if projectID != nil {
		task.ProjectID = in.Project
	}

	var completedAt sql.NullTime
	err := db.QueryRow(query,
		task.ID, userUID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, projectID, pq.Array(tags), task.EstimatedTime, task.ActualTime,
	).Scan(&completedAt, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	attachProjectInfo(db, task)
	return task, nil
}

// attachProjectInfo fills the display name and color of the referenced
// project, if any. Best effort: a missing project leaves them unset.
func attachProjectInfo(db *sql.DB, t *Task) {
	if t.ProjectID == nil {
		return
	}
	var name, color string
	err := db.QueryRow("SELECT name, color FROM projects WHERE id = $1", *t.ProjectID).
		Scan(&name, &color)
	if err != nil {
		return
	}
	t.ProjectName = &name
	t.ProjectColor = &color
}

// GetTask returns the task only when it exists and belongs to userUID.
func GetTask(db *sql.DB, id, userUID string) (*Task, error) {
	query := `
        SELECT ` + taskColumns + `, p.name, p.color
        FROM tasks t
        LEFT JOIN projects p ON p.id = t.project_id
        WHERE t.id = $1 AND t.user_uid = $2`

	task, err := scanTask(db.QueryRow(query, id, userUID), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return task, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search
// text. Queries using the result must carry ESCAPE '\'.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func validateTaskFilter(f TaskFilter) error {
	var v validationErrors

	if f.Status != "" && !validTaskStatuses[f.Status] {
		v.add("status", "Invalid status value")
	}
	if f.Priority != "" && !validPriorities[f.Priority] {
		v.add("priority", "Invalid priority value")
	}
	if f.ProjectID != "" {
		if _, err := uuid.Parse(f.ProjectID); err != nil {
			v.add("project", "Invalid project reference")
		}
	}
	return v.err()
}

// buildTaskListQuery turns a TaskFilter into the owner-scoped list
// query plus its positional parameters.
func buildTaskListQuery(userUID string, f TaskFilter) (string, []interface{}) {
	query := `
        SELECT ` + taskColumns + `, p.name, p.color
        FROM tasks t
        LEFT JOIN projects p ON p.id = t.project_id
        WHERE t.user_uid = $1`
	params := []interface{}{userUID}
	paramCount := 2

	if f.Status != "" {
		query += fmt.Sprintf(" AND t.status = $%d", paramCount)
		params = append(params, f.Status)
		paramCount++
	}
	if f.ProjectID != "" {
		query += fmt.Sprintf(" AND t.project_id = $%d", paramCount)
		params = append(params, f.ProjectID)
		paramCount++
	}
	if f.Priority != "" {
		query += fmt.Sprintf(" AND t.priority = $%d", paramCount)
		params = append(params, f.Priority)
		paramCount++
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		query += fmt.Sprintf(` AND (t.title ILIKE $%d ESCAPE '\' OR t.description ILIKE $%d ESCAPE '\')`,
			paramCount, paramCount)
		params = append(params, pattern)
		paramCount++
	}

	query += " ORDER BY t.created_at DESC"
	return query, params
}

// ListTasks returns every task of userUID matching the filter, newest
// first.
func ListTasks(db *sql.DB, userUID string, f TaskFilter) ([]*Task, error) {
	if err := validateTaskFilter(f); err != nil {
		return nil, err
	}
	query, params := buildTaskListQuery(userUID, f)

	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		task, err := scanTask(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read task rows: %w", err)
	}
	return tasks, nil
}

func validateTaskPatch(p *TaskPatch) error {
	var v validationErrors

	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		v.add("title", "Title is required")
	}
	if p.Status != nil && !validTaskStatuses[*p.Status] {
		v.add("status", "Invalid status value")
	}
	if p.Priority != nil && !validPriorities[*p.Priority] {
		v.add("priority", "Invalid priority value")
	}
	if p.EstimatedTime != nil && *p.EstimatedTime < 0 {
		v.add("estimatedTime", "Estimated time cannot be negative")
	}
	if p.ActualTime != nil && *p.ActualTime < 0 {
		v.add("actualTime", "Actual time cannot be negative")
	}
	if p.Project != nil && *p.Project != "" {
		if _, err := uuid.Parse(*p.Project); err != nil {
			v.add("project", "Invalid project reference")
		}
	}
	return v.err()
}

// buildTaskUpdateQuery assembles the dynamic SET clause for a patch.
// A transition into completed stamps completed_at in the same
// statement, and only when it is still unset; it is never cleared
// again afterwards.
func buildTaskUpdateQuery(id, userUID string, p *TaskPatch) (string, []interface{}) {
	query := "UPDATE tasks SET "
	params := []interface{}{}
	paramCount := 1

	if p.Title != nil {
		query += fmt.Sprintf("title = $%d, ", paramCount)
		params = append(params, strings.TrimSpace(*p.Title))
		paramCount++
	}
	if p.Description != nil {
		query += fmt.Sprintf("description = $%d, ", paramCount)
		params = append(params, *p.Description)
		paramCount++
	}
	if p.Status != nil {
		query += fmt.Sprintf("status = $%d, ", paramCount)
		params = append(params, *p.Status)
		paramCount++
		if *p.Status == StatusCompleted {
			query += "completed_at = COALESCE(completed_at, NOW()), "
		}
	}
	if p.Priority != nil {
		query += fmt.Sprintf("priority = $%d, ", paramCount)
		params = append(params, *p.Priority)
		paramCount++
	}
	if p.DueDate != nil {
		query += fmt.Sprintf("due_date = $%d, ", paramCount)
		params = append(params, *p.DueDate)
		paramCount++
	}
	if p.Project != nil {
		var ref interface{}
		if *p.Project != "" {
			ref = *p.Project
		}
		query += fmt.Sprintf("project_id = $%d, ", paramCount)
		params = append(params, ref)
		paramCount++
	}
	if p.Tags != nil {
		query += fmt.Sprintf("tags = $%d, ", paramCount)
		params = append(params, pq.Array(*p.Tags))
		paramCount++
	}
	if p.EstimatedTime != nil {
		query += fmt.Sprintf("estimated_time = $%d, ", paramCount)
		params = append(params, *p.EstimatedTime)
		paramCount++
	}
	if p.ActualTime != nil {
		query += fmt.Sprintf("actual_time = $%d, ", paramCount)
		params = append(params, *p.ActualTime)
		paramCount++
	}

	query += fmt.Sprintf("updated_at = NOW() WHERE id = $%d AND user_uid = $%d", paramCount, paramCount+1)
	params = append(params, id, userUID)
	query += " RETURNING " + taskReturning
	return query, params
}

// UpdateTask merges the supplied fields into the stored task and
// returns the result. An empty patch still refreshes updated_at.
func UpdateTask(db *sql.DB, id, userUID string, p *TaskPatch) (*Task, error) {
	if err := validateTaskPatch(p); err != nil {
		return nil, err
	}

	query, params := buildTaskUpdateQuery(id, userUID, p)
	task, err := scanTask(db.QueryRow(query, params...), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	attachProjectInfo(db, task)
	return task, nil
}

// DeleteTask removes the task when it exists and belongs to userUID.
func DeleteTask(db *sql.DB, id, userUID string) error {
	result, err := db.Exec("DELETE FROM tasks WHERE id = $1 AND user_uid = $2", id, userUID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReapOrphanTasks deletes tasks whose project reference points at a
// project that no longer exists, the leftover of a cascade that failed
// partway. Idempotent; safe to run on every boot.
func ReapOrphanTasks(db *sql.DB) (int64, error) {
	result, err := db.Exec(`
        DELETE FROM tasks t
        WHERE t.project_id IS NOT NULL
          AND NOT EXISTS (SELECT 1 FROM projects p WHERE p.id = t.project_id)`)
	if err != nil {
		return 0, fmt.Errorf("failed to reap orphan tasks: %w", err)
	}
	return result.RowsAffected()
}
