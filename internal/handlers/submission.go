package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cses-oj/portal/internal/services"
	"github.com/cses-oj/portal/internal/store"
	"github.com/go-chi/chi/v5"
)

// SubmissionHandler provides the submission detail view.
type SubmissionHandler struct {
	submissionService *services.SubmissionService
	contestService    *services.ContestService
	userService       *services.UserService
}

// NewSubmissionHandler constructs a handler with the provided services.
func NewSubmissionHandler(
	submissionService *services.SubmissionService,
	contestService *services.ContestService,
	userService *services.UserService,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		contestService:    contestService,
		userService:       userService,
	}
}

// SubmissionRouter registers submission routes on the given router.
func SubmissionRouter(r chi.Router, handler *SubmissionHandler, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Get("/{submissionID}", handler.GetSubmission)
}

// GetSubmission returns a submission's detail. While a contest is
// running, only the owner and administrators may see it; after the
// contest ends everyone may.
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "submissionID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	requester, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	submission, err := h.submissionService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch submission")
		return
	}

	contest, err := h.contestService.Get(r.Context(), submission.ContestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch contest")
		return
	}

	if !services.CanView(submission, contest, requester, time.Now()) {
		writeError(w, http.StatusForbidden, "submission not visible")
		return
	}

	writeJSON(w, http.StatusOK, submission)
}
