package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/KumudBhatt/Code-Nexus/internal/config"
	"github.com/KumudBhatt/Code-Nexus/internal/execution"
)

// RunRequest is the one-shot run payload: compile and execute code against
// the supplied stdin. The result goes to the requesting client only; it is
// never written into any session.
type RunRequest struct {
	UserInput string `json:"userInput"`
	Code      string `json:"code"`
	Format    string `json:"format"`
}

type RunHandler struct {
	pipeline *execution.Pipeline
}

func NewRunHandler(pipeline *execution.Pipeline) *RunHandler {
	return &RunHandler{pipeline: pipeline}
}

// Run handles POST /api/v1/projects/{projectId}/run. The caller must own the
// project; the submission throttle is bound on the route.
func (h *RunHandler) Run(re *core.RequestEvent) error {
	projectID := re.Request.PathValue("projectId")

	project, err := re.App.FindRecordById("projects", projectID)
	if err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "Project not found",
		})
	}
	if project.GetString("user") != re.Auth.Id {
		return re.JSON(http.StatusForbidden, map[string]string{
			"status":  "error",
			"message": "Not authorized to run this project",
		})
	}

	var req RunRequest
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Invalid input format",
		})
	}
	if !h.pipeline.SupportedFormat(req.Format) {
		return re.JSON(http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Unsupported format",
		})
	}
	if len(req.Code) > config.MaxDocumentBytes || len(req.UserInput) > config.MaxStdinBytes {
		return re.JSON(http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Payload too large",
		})
	}

	result := h.pipeline.Execute(re.Request.Context(), execution.Submission{
		SourceText: req.Code,
		Format:     req.Format,
		Stdin:      req.UserInput,
	})

	switch result.Kind {
	case execution.KindSuccess:
		return re.JSON(http.StatusOK, map[string]string{
			"status": "success",
			"output": result.Output,
		})

	case execution.KindCompileError, execution.KindRuntimeError, execution.KindTimeout:
		// User-code failures are well-formed responses, not server errors.
		// Partial stdout captured before the failure rides along.
		return re.JSON(http.StatusOK, map[string]string{
			"status":    "error",
			"errorType": string(result.Kind),
			"message":   result.Diagnostic,
			"output":    result.Output,
		})

	default:
		return re.JSON(http.StatusInternalServerError, map[string]string{
			"status":    "error",
			"errorType": string(execution.KindInfrastructureError),
			"message":   result.Diagnostic,
		})
	}
}
