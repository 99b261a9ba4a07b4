package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_PutGet(t *testing.T) {
	s := NewReportService(time.Minute)

	_, err := s.Latest()
	assert.ErrorIs(t, err, ErrReportNotFound)

	first := sampleReport(true)
	s.Put(first)
	second := sampleReport(false)
	second.ID = "run-2"
	s.Put(second)

	got, err := s.Get("run-1")
	require.NoError(t, err)
	assert.True(t, got.Passed())

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.ID)

	_, err = s.Get("run-3")
	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.Contains(t, err.Error(), "run-3")
}

func TestReportService_StoresCopy(t *testing.T) {
	s := NewReportService(time.Minute)
	r := sampleReport(true)
	s.Put(r)
	r.ID = "changed"

	got, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
}

func TestReportService_Expiry(t *testing.T) {
	s := NewReportService(20 * time.Millisecond)
	s.Put(sampleReport(true))

	assert.Eventually(t, func() bool {
		_, err := s.Latest()
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestNewReportService_DefaultTTL(t *testing.T) {
	s := NewReportService(0).(*reportServiceImpl)
	assert.Equal(t, DefaultCacheExpiration, s.ttl)
}
