package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cses-oj/portal/internal/services"
	"github.com/cses-oj/portal/internal/store"
	"github.com/cses-oj/portal/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 128 << 20
	maxArchiveBytes    = 256 << 20

	formFieldTask     = "task"
	formFieldFile     = "file"
	formFieldLanguage = "language"
	formFieldName     = "name"
	formFieldData     = "data"
)

// ContestHandler provides HTTP handlers for contests, standings,
// submissions, imports and rejudges.
type ContestHandler struct {
	contestService    *services.ContestService
	submissionService *services.SubmissionService
	importService     *services.ImportService
	rejudgeService    *services.RejudgeService
	userService       *services.UserService
	maxSubmissionSize int64
}

// NewContestHandler constructs a handler with the provided services.
func NewContestHandler(
	contestService *services.ContestService,
	submissionService *services.SubmissionService,
	importService *services.ImportService,
	rejudgeService *services.RejudgeService,
	userService *services.UserService,
	maxSubmissionSize int64,
) *ContestHandler {
	return &ContestHandler{
		contestService:    contestService,
		submissionService: submissionService,
		importService:     importService,
		rejudgeService:    rejudgeService,
		userService:       userService,
		maxSubmissionSize: maxSubmissionSize,
	}
}

// ContestRouter registers contest routes on the given router.
func ContestRouter(
	r chi.Router,
	handler *ContestHandler,
	authMiddleware func(http.Handler) http.Handler,
) {
	r.Get("/", handler.ListContests)
	r.With(authMiddleware, handler.requireAdmin).Post("/import", handler.ImportArchive)
	r.Route("/{contestID}", func(r chi.Router) {
		r.Get("/", handler.GetContest)
		r.With(authMiddleware).Get("/scoreboard", handler.Scoreboard)
		r.With(authMiddleware).Get("/submissions", handler.ListSubmissions)
		r.With(authMiddleware).Post("/submissions", handler.CreateSubmission)
		r.With(authMiddleware, handler.requireAdmin).Post("/rejudge", handler.Rejudge)
		r.With(authMiddleware, handler.requireAdmin).Put("/schedule", handler.Schedule)
	})
}

func (h *ContestHandler) ListContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contests")
		return
	}
	writeJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) GetContest(w http.ResponseWriter, r *http.Request) {
	id, err := parseContestID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contest, err := h.contestService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contest not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch contest")
		return
	}

	tasks, err := h.contestService.ListTasks(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch tasks")
		return
	}

	writeJSON(w, http.StatusOK, ContestResponse{Contest: contest, Tasks: tasks})
}

// Scoreboard recomputes and returns the standings table. Standings
// are never cached; what mid-contest requesters can see depends on
// the contest's regime and the requester's role.
func (h *ContestHandler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	id, err := parseContestID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requester, err := h.requester(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	hideInactive := r.URL.Query().Get("hide_inactive") == "1"

	board, err := h.contestService.Scoreboard(r.Context(), id, requester, hideInactive)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contest not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute scoreboard")
		return
	}

	writeJSON(w, http.StatusOK, board)
}

func (h *ContestHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := parseContestID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	submissions, err := h.submissionService.ListForUser(r.Context(), id, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	writeJSON(w, http.StatusOK, submissions)
}

func (h *ContestHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	contestID, err := parseContestID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := h.parseSubmitForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	submission, err := h.submissionService.Create(
		r.Context(), contestID, req.TaskID, userID, req.Language, req.Filename, req.Source,
	)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "task not found")
		case errors.Is(err, services.ErrContestNotRunning):
			writeError(w, http.StatusForbidden, "contest is not running")
		case errors.Is(err, services.ErrSubmissionTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "submission too large")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create submission")
		}
		return
	}

	writeJSON(w, http.StatusCreated, submission)
}

func (h *ContestHandler) Rejudge(w http.ResponseWriter, r *http.Request) {
	id, err := parseContestID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	enqueued, err := h.rejudgeService.RejudgeContest(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contest not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to rejudge contest")
		return
	}

	writeJSON(w, http.StatusAccepted, RejudgeResponse{Enqueued: enqueued})
}

func (h *ContestHandler) ImportArchive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := strings.TrimSpace(r.FormValue(formFieldName))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	data, err := formFile(r.MultipartForm, formFieldData, maxArchiveBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contest, err := h.importService.ImportArchive(r.Context(), name, data.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, contest)
}

func (h *ContestHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseContestID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		writeError(w, http.StatusBadRequest, "end time must be after start time")
		return
	}

	if err := h.contestService.Schedule(r.Context(), id, req.StartTime, req.EndTime); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contest not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to schedule contest")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ContestResponse couples a contest with its ordered task list.
type ContestResponse struct {
	Contest types.Contest `json:"contest"`
	Tasks   []types.Task  `json:"tasks"`
}

// RejudgeResponse reports how many representative submissions were
// re-enqueued.
type RejudgeResponse struct {
	Enqueued int `json:"enqueued"`
}

// ScheduleRequest sets a contest's time window.
type ScheduleRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// SubmitRequest is the parsed multipart submission form.
type SubmitRequest struct {
	TaskID   int
	Language string
	Filename string
	Source   []byte
}

func (h *ContestHandler) parseSubmitForm(r *http.Request) (SubmitRequest, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return SubmitRequest{}, errors.New("invalid multipart form")
	}

	taskID, err := strconv.Atoi(strings.TrimSpace(r.FormValue(formFieldTask)))
	if err != nil || taskID < 1 {
		return SubmitRequest{}, errors.New("invalid task")
	}

	language := strings.TrimSpace(r.FormValue(formFieldLanguage))
	if language == "" {
		return SubmitRequest{}, errors.New("language is required")
	}

	file, err := formFile(r.MultipartForm, formFieldFile, h.maxSubmissionSize)
	if err != nil {
		return SubmitRequest{}, err
	}

	return SubmitRequest{
		TaskID:   taskID,
		Language: language,
		Filename: file.Filename,
		Source:   file.Data,
	}, nil
}

// UploadedFile is one file pulled out of a multipart form.
type UploadedFile struct {
	Filename string
	Data     []byte
}

func formFile(form *multipart.Form, field string, limit int64) (UploadedFile, error) {
	if form == nil {
		return UploadedFile{}, errors.New("missing form data")
	}

	files := form.File[field]
	if len(files) == 0 {
		return UploadedFile{}, errors.New(field + " file is required")
	}
	if len(files) > 1 {
		return UploadedFile{}, errors.New("only one " + field + " file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return UploadedFile{}, errors.New("failed to read upload")
	}

	data, err := readFileLimited(file, limit)
	_ = file.Close()
	if err != nil {
		return UploadedFile{}, err
	}

	return UploadedFile{
		Filename: fileHeader.Filename,
		Data:     data,
	}, nil
}

func parseContestID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "contestID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid contest id")
	}
	return id, nil
}

func (h *ContestHandler) requester(r *http.Request) (types.User, error) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		return types.User{}, err
	}
	return h.userService.GetByID(r.Context(), userID)
}

func (h *ContestHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.requester(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
