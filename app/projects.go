package app

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"

	"github.com/KumudBhatt/Code-Nexus/internal/handlers"
	"github.com/KumudBhatt/Code-Nexus/internal/security"
)

// RegisterProjects wires the authenticated project CRUD surface and the
// per-project run endpoint. The run route carries the submission throttle.
func RegisterProjects(se *core.ServeEvent, run *handlers.RunHandler, throttle *hook.Handler[*core.RequestEvent]) error {
	g := se.Router.Group("/api/v1/projects")
	g.Bind(apis.RequireAuth())

	g.GET("", listProjects)
	g.POST("", createProject)
	g.PUT("/{projectId}", updateProject)
	g.DELETE("/{projectId}", deleteProject)
	g.POST("/{projectId}/run", run.Run).Bind(throttle)

	return nil
}

type projectInput struct {
	ProjectName string `json:"projectName"`
	Data        string `json:"data"`
}

type projectView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data string `json:"data"`
}

func listProjects(e *core.RequestEvent) error {
	records, err := e.App.FindRecordsByFilter(
		"projects",
		"user = {:user}",
		"-created",
		200,
		0,
		map[string]any{"user": e.Auth.Id},
	)
	if err != nil {
		return e.JSON(http.StatusInternalServerError, errorResponse(err))
	}

	projects := make([]projectView, 0, len(records))
	for _, record := range records {
		projects = append(projects, projectView{
			ID:   record.Id,
			Name: record.GetString("name"),
			Data: record.GetString("data"),
		})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Projects fetched successfully",
		"data":    projects,
	})
}

func createProject(e *core.RequestEvent) error {
	var input projectInput
	if err := e.BindBody(&input); err != nil || input.ProjectName == "" {
		return e.JSON(http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Invalid project data",
		})
	}

	collection, err := e.App.FindCollectionByNameOrId("projects")
	if err != nil {
		return e.JSON(http.StatusInternalServerError, errorResponse(err))
	}

	record := core.NewRecord(collection)
	record.Set("name", input.ProjectName)
	record.Set("data", input.Data)
	record.Set("user", e.Auth.Id)

	if err := e.App.Save(record); err != nil {
		return e.JSON(http.StatusInternalServerError, errorResponse(err))
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"status":  "success",
		"message": "Project created successfully",
		"data":    map[string]string{"projectId": record.Id},
	})
}

func updateProject(e *core.RequestEvent) error {
	record, ok := findOwnedProject(e)
	if !ok {
		return nil
	}

	var input projectInput
	if err := e.BindBody(&input); err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Invalid project data",
		})
	}

	if input.ProjectName != "" {
		record.Set("name", input.ProjectName)
	}
	record.Set("data", input.Data)

	if err := e.App.Save(record); err != nil {
		return e.JSON(http.StatusInternalServerError, errorResponse(err))
	}

	return e.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Project updated successfully",
	})
}

func deleteProject(e *core.RequestEvent) error {
	record, ok := findOwnedProject(e)
	if !ok {
		return nil
	}

	if err := e.App.Delete(record); err != nil {
		return e.JSON(http.StatusInternalServerError, errorResponse(err))
	}

	return e.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Project deleted successfully",
	})
}

// findOwnedProject resolves {projectId} and enforces ownership. On failure it
// writes the error response itself and reports false.
func findOwnedProject(e *core.RequestEvent) (*core.Record, bool) {
	projectID := e.Request.PathValue("projectId")

	record, err := e.App.FindRecordById("projects", projectID)
	if err != nil {
		_ = e.JSON(http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "Project not found",
		})
		return nil, false
	}
	if record.GetString("user") != e.Auth.Id {
		_ = e.JSON(http.StatusForbidden, map[string]string{
			"status":  "error",
			"message": "Not authorized to access this project",
		})
		return nil, false
	}
	return record, true
}

func errorResponse(err error) map[string]string {
	return map[string]string{
		"status":  "error",
		"message": security.SanitizeErrorMessage(err),
	}
}
