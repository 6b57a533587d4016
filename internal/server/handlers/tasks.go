package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/earnbuzz/earnbuzz/internal/core"
	"github.com/earnbuzz/earnbuzz/internal/core/claim"
	"github.com/earnbuzz/earnbuzz/internal/core/engine"
	"github.com/earnbuzz/earnbuzz/internal/core/task"
)

// TaskCatalogResponse lists the available tasks.
type TaskCatalogResponse struct {
	Tasks []task.Task `json:"tasks"`
}

// TaskBoardResponse is a user's task board.
type TaskBoardResponse struct {
	UserID string       `json:"user_id"`
	Tasks  []task.Entry `json:"tasks"`
}

// TaskActionResponse is returned by the verify and complete routes.
type TaskActionResponse struct {
	TaskID         string            `json:"task_id"`
	VerifyEndsAtMs *int64            `json:"verify_ends_at_ms,omitempty"`
	Reward         int64             `json:"reward,omitempty"`
	Balance        int64             `json:"balance,omitempty"`
	Transaction    *core.Transaction `json:"transaction,omitempty"`
}

// TaskRejectedResponse is returned with 409 when a transition is refused.
type TaskRejectedResponse struct {
	Error     string      `json:"error"`
	Reason    task.Reason `json:"reason"`
	TaskID    string      `json:"task_id"`
	RetryAtMs *int64      `json:"retry_at_ms,omitempty"`
}

// TaskCatalogHandler serves GET /api/tasks.
func (a *API) TaskCatalogHandler(w http.ResponseWriter, r *http.Request) {
	tasks := a.Tasks.Tasks()
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, TaskCatalogResponse{Tasks: tasks})
}

// TaskBoardHandler serves GET /api/users/{userID}/tasks.
func (a *API) TaskBoardHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	board, err := a.Tasks.Board(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err, "failed to load task board")
		return
	}
	writeJSON(w, http.StatusOK, TaskBoardResponse{UserID: userID, Tasks: board})
}

// TaskVerifyHandler serves POST /api/users/{userID}/tasks/{taskID}/verify.
func (a *API) TaskVerifyHandler(w http.ResponseWriter, r *http.Request) {
	res, err := a.Tasks.Begin(r.Context(), userIDParam(r), chi.URLParam(r, "taskID"))
	a.writeTaskResult(w, r, res, err, "failed to start task verification")
}

// TaskCompleteHandler serves POST /api/users/{userID}/tasks/{taskID}/complete.
func (a *API) TaskCompleteHandler(w http.ResponseWriter, r *http.Request) {
	res, err := a.Tasks.Complete(r.Context(), userIDParam(r), chi.URLParam(r, "taskID"))
	a.writeTaskResult(w, r, res, err, "failed to complete task")
}

func (a *API) writeTaskResult(w http.ResponseWriter, r *http.Request, res *engine.TaskResult, err error, message string) {
	if err != nil {
		respondWithServiceError(w, r, err, message)
		return
	}

	if res.Rejected != nil {
		body := TaskRejectedResponse{
			Error:     res.Rejected.Error(),
			Reason:    res.Rejected.Reason,
			TaskID:    res.Rejected.TaskID,
			RetryAtMs: claim.ToMillis(res.Rejected.RetryAt),
		}
		if res.Rejected.RetryAt != nil {
			w.Header().Set("Retry-After", retryAfterSeconds(*res.Rejected.RetryAt, res.At))
		}
		writeJSON(w, http.StatusConflict, body)
		return
	}

	writeJSON(w, http.StatusOK, TaskActionResponse{
		TaskID:         res.Task.ID,
		VerifyEndsAtMs: claim.ToMillis(res.VerifyEndsAt),
		Reward:         res.Reward,
		Balance:        res.Balance,
		Transaction:    res.Transaction,
	})
}
