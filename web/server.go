// Package web serves a localhost-only single-user UI; it intentionally has no
// auth/CSRF protection in this mode.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"goattend/attendance"
	"goattend/importer"
	"goattend/internal/logger"
	"goattend/internal/timeutil"
	"goattend/output"
	"goattend/profile"
	"goattend/recorder"
	"goattend/storage"
)

const defaultRunLimit = 20

type RunStore interface {
	SaveRun(run storage.Run) (string, error)
	ListRuns(limit int) ([]storage.Run, error)
	ListRunDetails(limit int) ([]storage.Run, error)
	GetRun(id string) (storage.Run, error)
	LastSync() (time.Time, bool, error)
}

type PunchSource interface {
	ListPunches() ([]attendance.Punch, error)
}

// RunFunc executes one recording workflow and reports each finished day
// through progress.
type RunFunc func(ctx context.Context, req recorder.Request, progress recorder.ProgressFunc) (*recorder.Report, error)

type Options struct {
	Store   RunStore
	Punches PunchSource
	Profile profile.WorkProfile
	Run     RunFunc
	Log     *logger.Logger
}

type Server struct {
	opts   Options
	engine *gin.Engine
	hub    *hub

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
}

type recordRequest struct {
	Mode string `json:"mode"`
	From string `json:"from"`
	To   string `json:"to"`
}

type planResponse struct {
	Mode       string     `json:"mode"`
	Recordable []planDay  `json:"recordable"`
	Skips      []skipView `json:"skips"`
}

type planDay struct {
	Date    string `json:"date"`
	DayID   string `json:"day_id"`
	Periods int    `json:"periods"`
}

type skipView struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type statusResponse struct {
	Running  bool   `json:"running"`
	LastSync string `json:"last_sync,omitempty"`
}

var errNoImportedPunches = errors.New("no imported punches; run \"goattend import\" first")

func NewServer(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	server := &Server{
		opts:    opts,
		hub:     newHub(),
		baseCtx: ctx,
		cancel:  cancel,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", server.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/status", server.handleStatus)
		api.GET("/profile", server.handleProfile)
		api.GET("/days", server.handleDays)
		api.GET("/runs", server.handleRuns)
		api.GET("/runs/:id", server.handleRun)
		api.POST("/plan", server.handlePlan)
		api.POST("/record", server.handleRecord)
	}
	router.GET("/ws/progress", server.handleProgressSocket)
	server.engine = router

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Shutdown cancels a running batch and waits for it to finish.
func (s *Server) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until the background batch, if any, has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	resp := statusResponse{Running: s.running}
	s.mu.Unlock()

	last, ok, err := s.opts.Store.LastSync()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ok {
		resp.LastSync = last.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleProfile(c *gin.Context) {
	c.JSON(http.StatusOK, BuildProfileView(s.opts.Profile))
}

func (s *Server) handleDays(c *gin.Context) {
	imported, err := s.importedPeriods()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	imported = filterDates(imported, c.Query("from"), c.Query("to"))

	runs, err := s.opts.Store.ListRunDetails(defaultRunLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, BuildDayRows(output.BuildDailySummaries(imported), runs))
}

func (s *Server) handleRuns(c *gin.Context) {
	limit := defaultRunLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	runs, err := s.opts.Store.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleRun(c *gin.Context) {
	run, err := s.opts.Store.GetRun(c.Param("id"))
	if errors.Is(err, storage.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handlePlan(c *gin.Context) {
	req, ok := s.bindRecordRequest(c)
	if !ok {
		return
	}
	req.DryRun = true

	report, err := s.opts.Run(c.Request.Context(), req, nil)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildPlanResponse(report))
}

func (s *Server) handleRecord(c *gin.Context) {
	req, ok := s.bindRecordRequest(c)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a recording run is already in progress"})
		return
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.record(req)
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "mode": string(req.Mode)})
}

func (s *Server) record(req recorder.Request) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	progress := func(index, total int, date string, success bool) {
		s.hub.publish(wsEnvelope{Type: "progress", Data: progressEvent{
			Index:   index,
			Total:   total,
			Date:    date,
			Success: success,
		}})
	}

	report, err := s.opts.Run(s.baseCtx, req, progress)
	if err != nil {
		s.opts.Log.Errorw("recording run failed", "mode", req.Mode, "err", err)
		s.hub.publish(wsEnvelope{Type: "failed", Error: err.Error()})
		return
	}

	runID, err := s.opts.Store.SaveRun(report.StoredRun())
	if err != nil {
		s.opts.Log.Errorw("save recording run", "err", err)
		s.hub.publish(wsEnvelope{Type: "failed", Error: err.Error()})
		return
	}
	s.hub.publish(wsEnvelope{Type: "finished", Data: finishedEvent{RunID: runID, Result: report.Result}})
}

func (s *Server) bindRecordRequest(c *gin.Context) (recorder.Request, bool) {
	var body recordRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return recorder.Request{}, false
		}
	}

	req := recorder.Request{
		Mode: recorder.Mode(strings.ToLower(strings.TrimSpace(body.Mode))),
		From: strings.TrimSpace(body.From),
		To:   strings.TrimSpace(body.To),
	}
	for _, value := range []string{req.From, req.To} {
		if value == "" {
			continue
		}
		if _, err := timeutil.ParseDate(value, time.UTC); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format (expected YYYY-MM-DD)"})
			return recorder.Request{}, false
		}
	}

	switch req.Mode {
	case "", recorder.ModeProfile:
		req.Mode = recorder.ModeProfile
	case recorder.ModeImport:
		imported, err := s.importedPeriods()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return recorder.Request{}, false
		}
		if len(imported) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errNoImportedPunches.Error()})
			return recorder.Request{}, false
		}
		req.Imported = imported
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be profile or import"})
		return recorder.Request{}, false
	}
	return req, true
}

func (s *Server) importedPeriods() (map[string][]attendance.Period, error) {
	punches, err := s.opts.Punches.ListPunches()
	if err != nil {
		return nil, err
	}
	loc, err := s.opts.Profile.Location()
	if err != nil {
		return nil, err
	}
	return importer.Aggregate(punches, loc), nil
}

func buildPlanResponse(report *recorder.Report) planResponse {
	resp := planResponse{
		Mode:       string(report.Mode),
		Recordable: make([]planDay, 0, len(report.Recordable)),
		Skips:      make([]skipView, 0, len(report.Skips)),
	}
	for _, day := range report.Recordable {
		resp.Recordable = append(resp.Recordable, planDay{Date: day.Date, DayID: day.DayID, Periods: len(day.Periods)})
	}
	for _, skip := range report.Skips {
		resp.Skips = append(resp.Skips, skipView{Date: skip.Date, Reason: string(skip.Reason), Detail: skip.Detail})
	}
	return resp
}

func filterDates(byDate map[string][]attendance.Period, from, to string) map[string][]attendance.Period {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" && to == "" {
		return byDate
	}
	out := make(map[string][]attendance.Period, len(byDate))
	for date, periods := range byDate {
		if (from != "" && date < from) || (to != "" && date > to) {
			continue
		}
		out[date] = periods
	}
	return out
}

func errorStatus(err error) int {
	var authErr *attendance.AuthError
	var validationErr *attendance.ValidationError
	var rejection *attendance.RemoteRejection
	var transportErr *attendance.TransportError
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &rejection), errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
