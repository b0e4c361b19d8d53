package models

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const DefaultProjectColor = "#3B82F6"

var validProjectStatuses = map[string]bool{
	"active":    true,
	"completed": true,
	"on-hold":   true,
	"cancelled": true,
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type Project struct {
	ID          string     `json:"id"`
	UserUID     string     `json:"user"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	Status      string     `json:"status"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	// Progress is the user-settable value; it is independent from the
	// derived Stats.Progress and the two are never reconciled.
	Progress  int           `json:"progress"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Stats     *ProjectStats `json:"stats,omitempty"`
}

// ProjectStats is computed fresh from the task collection on every
// project read; nothing here is persisted.
type ProjectStats struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	Progress       int `json:"progress"`
}

type CreateProjectInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Progress    int        `json:"progress"`
}

// ProjectPatch is the allow-list of mutable project fields.
type ProjectPatch struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Color       *string    `json:"color"`
	Status      *string    `json:"status"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Progress    *int       `json:"progress"`
}

const projectColumns = `id, user_uid, name, description, color, status,
       start_date, end_date, progress, created_at, updated_at`

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var endDate sql.NullTime

	err := row.Scan(
		&p.ID, &p.UserUID, &p.Name, &p.Description, &p.Color, &p.Status,
		&p.StartDate, &endDate, &p.Progress, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		p.EndDate = &endDate.Time
	}
	return &p, nil
}

func validateProjectInput(in *CreateProjectInput) error {
	var v validationErrors

	name := strings.TrimSpace(in.Name)
	if name == "" {
		v.add("name", "Project name is required")
	} else if utf8.RuneCountInString(name) > 100 {
		v.add("name", "Project name cannot be more than 100 characters")
	}
	if utf8.RuneCountInString(in.Description) > 500 {
		v.add("description", "Description cannot be more than 500 characters")
	}
	if !hexColorPattern.MatchString(in.Color) {
		v.add("color", "Invalid color format")
	}
	if !validProjectStatuses[in.Status] {
		v.add("status", "Invalid status value")
	}
	if in.Progress < 0 || in.Progress > 100 {
		v.add("progress", "Progress must be between 0 and 100")
	}
	return v.err()
}

// CreateProject validates and stores a new project owned by userUID.
func CreateProject(db *sql.DB, userUID string, in *CreateProjectInput) (*Project, error) {
	if in.Color == "" {
		in.Color = DefaultProjectColor
	}
	if in.Status == "" {
		in.Status = "active"
	}
	if err := validateProjectInput(in); err != nil {
		return nil, err
	}

	project := &Project{
		ID:          uuid.New().String(),
		UserUID:     userUID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Color:       in.Color,
		Status:      in.Status,
		EndDate:     in.EndDate,
		Progress:    in.Progress,
	}

	query := `
        INSERT INTO projects (id, user_uid, name, description, color, status,
                              start_date, end_date, progress)
        VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), $8, $9)
        RETURNING start_date, created_at, updated_at`

	err := db.QueryRow(query,
		project.ID, userUID, project.Name, project.Description, project.Color,
		project.Status, in.StartDate, in.EndDate, project.Progress,
	).Scan(&project.StartDate, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	return project, nil
}

// progressPercent rounds completed/total to a whole percentage, 0 when
// there are no tasks.
func progressPercent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// GetProjectStats counts the tasks referencing the project. The match
// is purely on the weak reference, mirroring how membership is
// discovered everywhere else.
func GetProjectStats(db *sql.DB, projectID string) (*ProjectStats, error) {
	var stats ProjectStats
	err := db.QueryRow(`
        SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'completed')
        FROM tasks
        WHERE project_id = $1`, projectID,
	).Scan(&stats.TotalTasks, &stats.CompletedTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to compute project stats: %w", err)
	}
	stats.Progress = progressPercent(stats.CompletedTasks, stats.TotalTasks)
	return &stats, nil
}

// GetProject returns the project with freshly computed stats attached.
func GetProject(db *sql.DB, id, userUID string) (*Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE id = $1 AND user_uid = $2"

	project, err := scanProject(db.QueryRow(query, id, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	stats, err := GetProjectStats(db, project.ID)
	if err != nil {
		return nil, err
	}
	project.Stats = stats
	return project, nil
}

// ListProjects returns every project of userUID, newest first, each
// with its stats computed from the current task set.
func ListProjects(db *sql.DB, userUID string) ([]*Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE user_uid = $1 ORDER BY created_at DESC"

	rows, err := db.Query(query, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project rows: %w", err)
	}

	for _, project := range projects {
		stats, err := GetProjectStats(db, project.ID)
		if err != nil {
			return nil, err
		}
		project.Stats = stats
	}
	return projects, nil
}

func validateProjectPatch(p *ProjectPatch) error {
	var v validationErrors

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			v.add("name", "Project name is required")
		} else if utf8.RuneCountInString(name) > 100 {
			v.add("name", "Project name cannot be more than 100 characters")
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > 500 {
		v.add("description", "Description cannot be more than 500 characters")
	}
	if p.Color != nil && !hexColorPattern.MatchString(*p.Color) {
		v.add("color", "Invalid color format")
	}
	if p.Status != nil && !validProjectStatuses[*p.Status] {
		v.add("status", "Invalid status value")
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		v.add("progress", "Progress must be between 0 and 100")
	}
	return v.err()
}

func buildProjectUpdateQuery(id, userUID string, p *ProjectPatch) (string, []interface{}) {
	query := "UPDATE projects SET "
	params := []interface{}{}
	paramCount := 1

	if p.Name != nil {
		query += fmt.Sprintf("name = $%d, ", paramCount)
		params = append(params, strings.TrimSpace(*p.Name))
		paramCount++
	}
	if p.Description != nil {
		query += fmt.Sprintf("description = $%d, ", paramCount)
		params = append(params, *p.Description)
		paramCount++
	}
	if p.Color != nil {
		query += fmt.Sprintf("color = $%d, ", paramCount)
		params = append(params, *p.Color)
		paramCount++
	}
	if p.Status != nil {
		query += fmt.Sprintf("status = $%d, ", paramCount)
		params = append(params, *p.Status)
		paramCount++
	}
	if p.StartDate != nil {
		query += fmt.Sprintf("start_date = $%d, ", paramCount)
		params = append(params, *p.StartDate)
		paramCount++
	}
	if p.EndDate != nil {
		query += fmt.Sprintf("end_date = $%d, ", paramCount)
		params = append(params, *p.EndDate)
		paramCount++
	}
	if p.Progress != nil {
		query += fmt.Sprintf("progress = $%d, ", paramCount)
		params = append(params, *p.Progress)
		paramCount++
	}

	query += fmt.Sprintf("updated_at = NOW() WHERE id = $%d AND user_uid = $%d", paramCount, paramCount+1)
	params = append(params, id, userUID)
	query += " RETURNING " + projectColumns
	return query, params
}

// UpdateProject merges the supplied fields and returns the result with
// fresh stats.
func UpdateProject(db *sql.DB, id, userUID string, p *ProjectPatch) (*Project, error) {
	if err := validateProjectPatch(p); err != nil {
		return nil, err
	}

	query, params := buildProjectUpdateQuery(id, userUID, p)
	project, err := scanProject(db.QueryRow(query, params...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	stats, err := GetProjectStats(db, project.ID)
	if err != nil {
		return nil, err
	}
	project.Stats = stats
	return project, nil
}

// DeleteProject removes the project and then every task referencing
// it. The two deletes run sequentially without a transaction: per-row
// atomicity only. A failure after the first delete leaves orphaned
// task references, which ReapOrphanTasks cleans up on the next boot.
func DeleteProject(db *sql.DB, id, userUID string) error {
	result, err := db.Exec("DELETE FROM projects WHERE id = $1 AND user_uid = $2", id, userUID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	// The task match is purely on the reference, no owner filter.
	if _, err := db.Exec("DELETE FROM tasks WHERE project_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}
	return nil
}
