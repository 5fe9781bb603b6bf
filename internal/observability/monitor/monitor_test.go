package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newslook/internal/domain/entity"
	"newslook/internal/infra/extractor"
)

func TestMonitor_Record_AccumulatesPerSourceCounters(t *testing.T) {
	m := New()

	m.Record(entity.FetchOutcome{Source: entity.SourceSina, Result: entity.FetchOK, Bytes: 1024, ElapsedMS: 42, Timestamp: time.Now()})
	m.Record(entity.FetchOutcome{Source: entity.SourceSina, Result: entity.FetchRetry, ElapsedMS: 10, Timestamp: time.Now()})
	m.Record(entity.FetchOutcome{Source: entity.SourceSina, Result: entity.FetchFail, URL: "https://sina.com/x", ElapsedMS: 5000, Timestamp: time.Now()})

	snap := m.Snapshot()
	require.Contains(t, snap.Sources, entity.SourceSina)
	s := snap.Sources[entity.SourceSina]
	assert.EqualValues(t, 3, s.RequestsAttempted)
	assert.EqualValues(t, 1, s.RequestsOK)
	assert.EqualValues(t, 1, s.RequestsRetried)
	assert.EqualValues(t, 1, s.RequestsFailed)
	assert.EqualValues(t, 1024, s.BytesDownloaded)
	require.NotNil(t, s.LastSuccess)
	require.Len(t, s.LastErrors, 1)
	assert.Equal(t, "https://sina.com/x", s.LastErrors[0].Message)
}

func TestMonitor_RecordIngest_TracksStoredAndDuplicate(t *testing.T) {
	m := New()

	m.RecordIngest(entity.IngestOutcome{Source: entity.SourceSina, Result: entity.IngestStored, Timestamp: time.Now()})
	m.RecordIngest(entity.IngestOutcome{Source: entity.SourceSina, Result: entity.IngestDuplicate, Timestamp: time.Now()})
	m.RecordIngest(entity.IngestOutcome{Source: entity.SourceSina, Result: entity.IngestInvalid, Timestamp: time.Now()})

	s := m.Snapshot().Sources[entity.SourceSina]
	assert.EqualValues(t, 3, s.ArticlesScanned)
	assert.EqualValues(t, 1, s.ArticlesStored)
	assert.EqualValues(t, 1, s.ArticlesDuplicate)
}

func TestMonitor_RecordAdFilterMatch_CountsBySource(t *testing.T) {
	m := New()

	m.RecordAdFilterMatch(extractor.AdFilterEvent{Source: entity.SourceSina, URL: "https://sina.com/ad", Pattern: "ad-slot", Hard: true})

	s := m.Snapshot().Sources[entity.SourceSina]
	assert.EqualValues(t, 1, s.AdFilterMatches)
}

func TestMonitor_Snapshot_UnknownSourceIsAbsent(t *testing.T) {
	m := New()
	snap := m.Snapshot()
	assert.Empty(t, snap.Sources)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestMonitor_ErrorLog_IsBoundedToMaxSize(t *testing.T) {
	m := New()
	for i := 0; i < maxErrorLogSize+10; i++ {
		m.Record(entity.FetchOutcome{Source: entity.SourceSina, Result: entity.FetchFail, URL: "https://sina.com/x", Timestamp: time.Now()})
	}
	s := m.Snapshot().Sources[entity.SourceSina]
	assert.Len(t, s.LastErrors, maxErrorLogSize)
	assert.EqualValues(t, maxErrorLogSize+10, s.RequestsFailed)
}

func TestMonitor_LatencyBuckets_ClassifyIntoExpectedBound(t *testing.T) {
	m := New()
	m.Record(entity.FetchOutcome{Source: entity.SourceSina, Result: entity.FetchOK, ElapsedMS: 5, Timestamp: time.Now()})
	m.Record(entity.FetchOutcome{Source: entity.SourceSina, Result: entity.FetchOK, ElapsedMS: 20000, Timestamp: time.Now()})

	s := m.Snapshot().Sources[entity.SourceSina]
	assert.EqualValues(t, 1, s.LatencyBucketsMS[10])
	assert.EqualValues(t, 1, s.LatencyBucketsMS[0]) // overflow bucket
}
