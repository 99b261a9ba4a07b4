package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/models"
)

const (
	ckRunReport       = "run_report_%s"
	ckLatestRunReport = "latest_run_report"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

var ErrReportNotFound = errors.New("run report not found")

// ReportService keeps finished run reports in memory for the report API.
type ReportService interface {
	Put(report models.RunReport)
	Get(id string) (*models.RunReport, error)
	Latest() (*models.RunReport, error)
}

type reportServiceImpl struct {
	reportCache *cache.Cache
	ttl         time.Duration
}

// NewReportService stores reports for ttl. A non-positive ttl uses
// DefaultCacheExpiration.
func NewReportService(ttl time.Duration) ReportService {
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	cleanup := CacheCleanupInterval
	if 2*ttl > cleanup {
		cleanup = 2 * ttl
	}
	return &reportServiceImpl{
		reportCache: cache.New(ttl, cleanup),
		ttl:         ttl,
	}
}

func (s *reportServiceImpl) Put(report models.RunReport) {
	r := report
	s.reportCache.Set(fmt.Sprintf(ckRunReport, report.ID), &r, s.ttl)
	s.reportCache.Set(ckLatestRunReport, &r, s.ttl)
	logger.L.Debug("Run report cached", "runID", report.ID, "ttl", s.ttl)
}

func (s *reportServiceImpl) Get(id string) (*models.RunReport, error) {
	if cached, found := s.reportCache.Get(fmt.Sprintf(ckRunReport, id)); found {
		return cached.(*models.RunReport), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
}

func (s *reportServiceImpl) Latest() (*models.RunReport, error) {
	if cached, found := s.reportCache.Get(ckLatestRunReport); found {
		return cached.(*models.RunReport), nil
	}
	return nil, ErrReportNotFound
}
