package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"taskflow-backend/models"
	"taskflow-backend/utilities"
)

// ListProjectsHandler returns the caller's projects, each with stats
// computed fresh from the current task set.
func ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	projects, err := models.ListProjects(db, uid)
	if err != nil {
		respondError(w, err, "Project not found", "Failed to list projects")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "projects": projects})
}

func CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	var input models.CreateProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utilities.LogError(err, "Failed to decode project payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	defer r.Body.Close()

	project, err := models.CreateProject(db, uid, &input)
	if err != nil {
		respondError(w, err, "Project not found", "Failed to create project")
		return
	}

	utilities.LogInfo("Project created: %s (%s)", project.Name, project.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "project": project})
}

func GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	projectID := mux.Vars(r)["id"]
	project, err := models.GetProject(db, projectID, uid)
	if err != nil {
		respondError(w, err, "Project not found", "Failed to fetch project")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "project": project})
}

func UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	var patch models.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utilities.LogError(err, "Failed to decode project patch")
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	defer r.Body.Close()

	projectID := mux.Vars(r)["id"]
	project, err := models.UpdateProject(db, projectID, uid, &patch)
	if err != nil {
		respondError(w, err, "Project not found", "Failed to update project")
		return
	}

	utilities.LogInfo("Project updated: %s", project.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "project": project})
}

// DeleteProjectHandler removes the project and cascades to every task
// referencing it.
func DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	projectID := mux.Vars(r)["id"]
	if err := models.DeleteProject(db, projectID, uid); err != nil {
		respondError(w, err, "Project not found", "Failed to delete project")
		return
	}

	utilities.LogInfo("Project deleted with its tasks: %s", projectID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Project and associated tasks deleted successfully",
	})
}
