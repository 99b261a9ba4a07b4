package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/services"
	"github.com/username/mgscheck/src/utils"
)

// RunTrigger starts a verification run.
type RunTrigger interface {
	Run(ctx context.Context, svcs ...models.Service) (models.RunReport, error)
}

type ReportHandler struct {
	reports services.ReportService
	runner  RunTrigger
}

func NewReportHandler(reports services.ReportService, runner RunTrigger) *ReportHandler {
	return &ReportHandler{reports: reports, runner: runner}
}

// RunRequest is the optional body of POST /api/runs. No services means all.
type RunRequest struct {
	Services []string `json:"services"`
}

func (h *ReportHandler) HandleGetLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Latest()
	if err != nil {
		utils.SendJSONError(w, "no run report available", http.StatusNotFound)
		return
	}
	writeReport(w, r, report)
}

func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	report, err := h.reports.Get(id)
	if errors.Is(err, services.ErrReportNotFound) {
		utils.SendJSONError(w, fmt.Sprintf("run report %s not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeReport(w, r, report)
}

// HandleStartRun runs the requested services and answers with the report.
func (h *ReportHandler) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.SendJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	svcs := make([]models.Service, 0, len(req.Services))
	for _, name := range req.Services {
		svc, err := models.ParseService(name)
		if err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		svcs = append(svcs, svc)
	}

	subject, _ := GetSubjectFromContext(r.Context())
	logger.L.Info("Run requested", "subject", subject, "services", req.Services)

	report, err := h.runner.Run(r.Context(), svcs...)
	if err != nil {
		logger.L.Error("Run could not start", "subject", subject, "error", err)
		utils.SendJSONError(w, "run failed to start: "+err.Error(), http.StatusBadGateway)
		return
	}
	utils.SendJSON(w, report, http.StatusCreated)
}

// writeReport sends report with an ETag, or 304 when the client has it.
func writeReport(w http.ResponseWriter, r *http.Request, report *models.RunReport) {
	w.Header().Set("Cache-Control", "no-cache, private")

	currentETag, etagErr := utils.GenerateETag(report)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for run report", "runID", report.ID, "error", etagErr)
	} else {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for run report", "runID", report.ID)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	utils.SendJSON(w, report, http.StatusOK)
}
