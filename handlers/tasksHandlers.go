package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"taskflow-backend/models"
	"taskflow-backend/utilities"
)

// ListTasksHandler returns the caller's tasks, optionally narrowed by
// status, project, priority and free-text search. All supplied
// criteria are ANDed.
func ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	queryParams := r.URL.Query()
	filter := models.TaskFilter{
		Status:    queryParams.Get("status"),
		ProjectID: queryParams.Get("project"),
		Priority:  queryParams.Get("priority"),
		Search:    queryParams.Get("search"),
	}

	tasks, err := models.ListTasks(db, uid, filter)
	if err != nil {
		respondError(w, err, "Task not found", "Failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "tasks": tasks})
}

func CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	var input models.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utilities.LogError(err, "Failed to decode task payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	defer r.Body.Close()

	task, err := models.CreateTask(db, uid, &input)
	if err != nil {
		respondError(w, err, "Task not found", "Failed to create task")
		return
	}

	utilities.LogInfo("Task created: %s (%s)", task.Title, task.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "task": task})
}

func GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	taskID := mux.Vars(r)["id"]
	task, err := models.GetTask(db, taskID, uid)
	if err != nil {
		respondError(w, err, "Task not found", "Failed to fetch task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

// UpdateTaskHandler applies a partial update. Only fields present in
// the payload change; a transition into completed stamps completedAt
// exactly once.
func UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utilities.LogError(err, "Failed to decode task patch")
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	defer r.Body.Close()

	taskID := mux.Vars(r)["id"]
	task, err := models.UpdateTask(db, taskID, uid, &patch)
	if err != nil {
		respondError(w, err, "Task not found", "Failed to update task")
		return
	}

	utilities.LogInfo("Task updated: %s", task.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

func DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	taskID := mux.Vars(r)["id"]
	if err := models.DeleteTask(db, taskID, uid); err != nil {
		respondError(w, err, "Task not found", "Failed to delete task")
		return
	}

	utilities.LogInfo("Task deleted: %s", taskID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Task deleted successfully"})
}

// TaskStatsHandler returns the status summary behind the dashboard
// header cards.
func TaskStatsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	stats, err := models.GetTaskStats(db, uid)
	if err != nil {
		respondError(w, err, "Task not found", "Failed to compute task stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}
