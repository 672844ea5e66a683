package archive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mms-viewer/backend/internal/models"
)

const sampleListing = `{"files":[
 {"file_name":"mms1_fgm_srvy_l2_20180313_v5.130.0.cdf","file_size":68616367,"timetag":"2018-03-13T00:00:00","modified_date":"2018-04-15T11:22:53"},
 {"file_name":"mms1_fgm_srvy_l2_20180313_v5.129.0.cdf","file_size":100,"timetag":"2018-03-13T00:00:00","modified_date":"2018-04-01T08:00:00"}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		FileInfoURL: srv.URL + "/file_info/",
		DownloadURL: srv.URL + "/download/",
	}, zap.NewNop())
	return c, &calls
}

func wholeDay() models.TimeRange {
	return BuildRange(time.Date(2018, 3, 13, 0, 0, 0, 0, time.UTC), time.Time{}, false)
}

func TestSearchFiles_ReturnsListingInOrder(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/file_info/science", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleListing))
	})

	files, err := c.SearchFiles(context.Background(), SearchRequest{
		Range:      wholeDay(),
		Instrument: models.InstrumentFGM,
		DataRate:   models.DataRateSurvey,
	})
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "mms1_fgm_srvy_l2_20180313_v5.130.0.cdf", files[0].FileName)
	assert.Equal(t, int64(68616367), files[0].FileSize)
	assert.Equal(t, time.Date(2018, 3, 13, 0, 0, 0, 0, time.UTC), files[0].Timetag.Time)
	assert.Equal(t, time.Date(2018, 4, 15, 11, 22, 53, 0, time.UTC), files[0].ModifiedDate.Time)
	assert.Equal(t, "mms1_fgm_srvy_l2_20180313_v5.129.0.cdf", files[1].FileName)

	assert.Equal(t,
		"start_date=2018-03-13&end_date=2018-03-13-23-59-59&sc_id=mms1&instrument_id=fgm&data_rate_mode=srvy&data_level=l2",
		gotQuery)
}

func TestSearchFiles_EmptyListing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"files":[]}`))
	})

	files, err := c.SearchFiles(context.Background(), SearchRequest{
		Range:      wholeDay(),
		Instrument: models.InstrumentFGM,
		DataRate:   models.DataRateSurvey,
	})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSearchFiles_InvalidCombinationFailsBeforeRequest(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"fgm fast", SearchRequest{Range: wholeDay(), Instrument: models.InstrumentFGM, DataRate: models.DataRateFast}},
		{"fgm default rate is fast", SearchRequest{Range: wholeDay(), Instrument: models.InstrumentFGM}},
		{"fpi survey", SearchRequest{Range: wholeDay(), Instrument: models.InstrumentFPI, DataRate: models.DataRateSurvey}},
		{"probe out of range", SearchRequest{Range: wholeDay(), Instrument: models.InstrumentFGM, DataRate: models.DataRateSurvey, Probe: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(sampleListing))
			})

			_, err := c.SearchFiles(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfiguration))
			assert.Equal(t, int32(0), atomic.LoadInt32(calls))
		})
	}
}

func TestSearchFiles_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>maintenance</html>`},
		{"missing files key", `{"results":[]}`},
		{"files not an array", `{"files":"none"}`},
		{"record without name", `{"files":[{"file_size":3}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			_, err := c.SearchFiles(context.Background(), SearchRequest{
				Range:      wholeDay(),
				Instrument: models.InstrumentFGM,
				DataRate:   models.DataRateSurvey,
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse), "got %v", err)
		})
	}
}

func TestSearchFiles_TransportError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	})

	_, err := c.SearchFiles(context.Background(), SearchRequest{
		Range:      wholeDay(),
		Instrument: models.InstrumentFGM,
		DataRate:   models.DataRateSurvey,
	})
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Equal(t, "search", te.Op)
	assert.Contains(t, te.Body, "upstream down")
	assert.True(t, IsTransport(err))
}

func TestSearchFiles_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Options{FileInfoURL: url + "/", DownloadURL: url + "/"}, nil)
	_, err := c.SearchFiles(context.Background(), SearchRequest{
		Range:      wholeDay(),
		Instrument: models.InstrumentFGM,
		DataRate:   models.DataRateSurvey,
	})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

// dirSink saves files into a directory the way the local cache does.
type dirSink struct {
	dir   string
	saved []string
}

func (d *dirSink) Save(name string, r io.Reader) (*models.CachedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, err
	}
	d.saved = append(d.saved, name)
	return &models.CachedFile{Name: name, Path: path, Size: int64(len(data))}, nil
}

type failingSink struct{}

func (failingSink) Save(string, io.Reader) (*models.CachedFile, error) {
	return nil, errors.New("disk full")
}

func TestDownloadFile_SavesBody(t *testing.T) {
	payload := []byte("\xcd\xf3\x00\x01binary payload")
	var gotFile string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download/science", r.URL.Path)
		gotFile = r.URL.Query().Get("file")
		w.Write(payload)
	})

	sink := &dirSink{dir: t.TempDir()}
	saved, err := c.DownloadFile(context.Background(), "mms1_fgm_srvy_l2_20180313_v5.130.0.cdf", sink)
	require.NoError(t, err)
	assert.Equal(t, "mms1_fgm_srvy_l2_20180313_v5.130.0.cdf", gotFile)
	assert.Equal(t, []string{"mms1_fgm_srvy_l2_20180313_v5.130.0.cdf"}, sink.saved)
	assert.Equal(t, int64(len(payload)), saved.Size)

	got, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadFile_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	sink := &dirSink{dir: t.TempDir()}
	_, err := c.DownloadFile(context.Background(), "missing.cdf", sink)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Empty(t, sink.saved)
}

func TestDownloadFile_SaveError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	})

	_, err := c.DownloadFile(context.Background(), "a.cdf", failingSink{})
	require.Error(t, err)
	assert.False(t, IsTransport(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"files":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{FileInfoURL: srv.URL + "/", RequestsPerMinute: 1}, zap.NewNop())
	req := SearchRequest{Range: wholeDay(), Instrument: models.InstrumentFGM, DataRate: models.DataRateSurvey}

	_, err := c.SearchFiles(context.Background(), req)
	require.NoError(t, err)

	// the single token is spent, so the next call must wait about a minute
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.SearchFiles(ctx, req)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}
