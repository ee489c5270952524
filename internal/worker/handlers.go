package worker

import (
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	gormdb "github.com/thebtf/namegroup/internal/db/gorm"
	"github.com/thebtf/namegroup/internal/worker/sse"
	"github.com/thebtf/namegroup/pkg/models"
)

const taskURLPrefix = "/api/grouping-tasks/"

// createTaskRequest is the body of POST /api/grouping-tasks.
type createTaskRequest struct {
	Names         []string `json:"names"`
	WordDelimiter string   `json:"word_delimiter"`
	Profile       string   `json:"profile"`
}

// moveNameRequest is the body of PATCH /api/grouping-tasks/{id}/move-name.
type moveNameRequest struct {
	Name        string `json:"name"`
	SourceGroup string `json:"source_group"`
	TargetGroup string `json:"target_group"`
}

// taskIdentity is the compact task representation used by create and list
// responses.
type taskIdentity struct {
	URL    string            `json:"url"`
	ID     string            `json:"id"`
	Status models.TaskStatus `json:"status"`
}

// taskDetail is the full task representation including the grouping result.
type taskDetail struct {
	models.GroupingTaskJSON
	URL string `json:"url"`
}

func identityOf(task *models.GroupingTask) taskIdentity {
	return taskIdentity{
		URL:    taskURLPrefix + task.PublicID,
		ID:     task.PublicID,
		Status: task.Status,
	}
}

func detailOf(task *models.GroupingTask) taskDetail {
	return taskDetail{
		GroupingTaskJSON: task.JSON(),
		URL:              taskURLPrefix + task.PublicID,
	}
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeFieldErrors writes a 400 response mapping field names to their
// validation errors.
func writeFieldErrors(w http.ResponseWriter, errs map[string][]string) {
	writeJSON(w, http.StatusBadRequest, errs)
}

// handleCreateTask godoc
//
//	@Summary		Create a grouping task
//	@Description	Validates the input names, queues a grouping task and returns its identity.
//	@Tags			grouping-tasks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		createTaskRequest	true	"Names to group"
//	@Success		201		{object}	taskIdentity
//	@Failure		400		{object}	map[string][]string
//	@Router			/api/grouping-tasks [post]
func (s *Service) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFieldErrors(w, map[string][]string{
			"non_field_errors": {"Invalid JSON body."},
		})
		return
	}

	fieldErrs := make(map[string][]string)
	if len(req.Names) == 0 {
		fieldErrs["names"] = append(fieldErrs["names"], "This field is required and may not be empty.")
	}
	for _, name := range req.Names {
		if name == "" {
			fieldErrs["names"] = append(fieldErrs["names"], "Names may not be blank.")
			break
		}
	}

	delimiter := req.WordDelimiter
	switch {
	case req.Profile != "" && req.WordDelimiter != "":
		fieldErrs["profile"] = append(fieldErrs["profile"], "Provide either profile or word_delimiter, not both.")
	case req.Profile != "":
		profile, ok := s.profiles.Get(req.Profile)
		if !ok {
			fieldErrs["profile"] = append(fieldErrs["profile"], fmt.Sprintf("Unknown profile: %s.", req.Profile))
		} else {
			delimiter = profile.Delimiter
		}
	case req.WordDelimiter == "":
		delimiter = "_"
	}
	if delimiter != "" && utf8.RuneCountInString(delimiter) != 1 {
		fieldErrs["word_delimiter"] = append(fieldErrs["word_delimiter"], "Delimiter must be a single character.")
	}

	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	task := models.NewGroupingTask(req.Names, delimiter)
	if err := s.taskStore.Create(r.Context(), task); err != nil {
		log.Error().Err(err).Msg("Failed to create grouping task")
		http.Error(w, "failed to create task", http.StatusInternalServerError)
		return
	}

	if err := s.processor.Enqueue(task.ID); err != nil {
		log.Warn().Err(err).Str("publicId", task.PublicID).Msg("Task queued in database only, queue is full")
	}

	s.stats.RecordCreated()
	s.sseBroadcaster.Broadcast(sse.TaskEvent{
		Type:   sse.EventTaskQueued,
		TaskID: task.PublicID,
		Status: string(task.Status),
	})

	log.Info().
		Str("publicId", task.PublicID).
		Int("names", len(task.Names)).
		Str("delimiter", task.WordDelimiter).
		Msg("Grouping task created")

	writeJSON(w, http.StatusCreated, identityOf(task))
}

// handleListTasks godoc
//
//	@Summary	List grouping tasks
//	@Tags		grouping-tasks
//	@Produce	json
//	@Success	200	{array}	taskIdentity
//	@Router		/api/grouping-tasks [get]
func (s *Service) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.taskStore.List(r.Context(), s.config.ListLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list grouping tasks")
		http.Error(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}

	identities := make([]taskIdentity, 0, len(tasks))
	for _, task := range tasks {
		identities = append(identities, identityOf(task))
	}
	writeJSON(w, http.StatusOK, identities)
}

// handleGetTask godoc
//
//	@Summary	Retrieve a grouping task
//	@Tags		grouping-tasks
//	@Produce	json
//	@Param		publicID	path		string	true	"Task ID"
//	@Success	200			{object}	taskDetail
//	@Failure	404			{string}	string
//	@Router		/api/grouping-tasks/{publicID} [get]
func (s *Service) handleGetTask(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")

	task, err := s.taskStore.GetByPublicID(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, gormdb.ErrTaskNotFound) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("publicId", publicID).Msg("Failed to load grouping task")
		http.Error(w, "failed to load task", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, detailOf(task))
}

// handleMoveName godoc
//
//	@Summary		Move a name between result groups
//	@Description	Edits a completed grouping result directly; the grouping is not re-run.
//	@Tags			grouping-tasks
//	@Accept			json
//	@Produce		json
//	@Param			publicID	path		string			true	"Task ID"
//	@Param			request		body		moveNameRequest	true	"Move description"
//	@Success		200			{object}	taskDetail
//	@Failure		400			{object}	map[string][]string
//	@Failure		404			{string}	string
//	@Router			/api/grouping-tasks/{publicID}/move-name [patch]
func (s *Service) handleMoveName(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")

	task, err := s.taskStore.GetByPublicID(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, gormdb.ErrTaskNotFound) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("publicId", publicID).Msg("Failed to load grouping task")
		http.Error(w, "failed to load task", http.StatusInternalServerError)
		return
	}

	var req moveNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFieldErrors(w, map[string][]string{
			"non_field_errors": {"Invalid JSON body."},
		})
		return
	}

	fieldErrs := make(map[string][]string)
	if req.Name == "" {
		fieldErrs["name"] = append(fieldErrs["name"], "This field is required.")
	}
	if req.SourceGroup == "" {
		fieldErrs["source_group"] = append(fieldErrs["source_group"], "This field is required.")
	}
	if req.TargetGroup == "" {
		fieldErrs["target_group"] = append(fieldErrs["target_group"], "This field is required.")
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	if err := task.Result.MoveName(req.Name, req.SourceGroup, req.TargetGroup); err != nil {
		switch {
		case errors.Is(err, models.ErrGroupNotFound):
			writeFieldErrors(w, map[string][]string{
				"source_group": {fmt.Sprintf("Group not found: %s.", req.SourceGroup)},
			})
		case errors.Is(err, models.ErrNameNotInGroup):
			writeFieldErrors(w, map[string][]string{
				"name": {fmt.Sprintf("'%s' not found in group '%s'.", req.Name, req.SourceGroup)},
			})
		default:
			log.Error().Err(err).Str("publicId", publicID).Msg("Failed to move name")
			http.Error(w, "failed to move name", http.StatusInternalServerError)
		}
		return
	}

	if err := s.taskStore.SaveResult(r.Context(), task.ID, task.Result); err != nil {
		log.Error().Err(err).Str("publicId", publicID).Msg("Failed to save edited result")
		http.Error(w, "failed to save result", http.StatusInternalServerError)
		return
	}

	s.stats.RecordMove()
	log.Info().
		Str("publicId", publicID).
		Str("name", req.Name).
		Str("from", req.SourceGroup).
		Str("to", req.TargetGroup).
		Msg("Name moved between groups")

	writeJSON(w, http.StatusOK, detailOf(task))
}

// handleListProfiles godoc
//
//	@Summary	List delimiter profiles
//	@Tags		profiles
//	@Produce	json
//	@Success	200	{array}	profiles.Profile
//	@Router		/api/profiles [get]
func (s *Service) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.profiles.All())
}

// handleStats godoc
//
//	@Summary	Processing statistics
//	@Tags		service
//	@Produce	json
//	@Success	200	{object}	StatsSnapshot
//	@Router		/api/stats [get]
func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetSnapshot())
}

// handleHealth returns service health and version information.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "starting"
	if s.ready.Load() {
		status = "ready"
	}

	database := "ok"
	if err := s.store.Ping(); err != nil {
		database = "error"
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"version":     s.version,
		"database":    database,
		"uptime":      time.Since(s.startTime).String(),
		"sse_clients": s.sseBroadcaster.ClientCount(),
	})
}

// handleReady reports whether the service can accept task requests.
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion returns the build version.
func (s *Service) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}
