// archive.go - Fake science archive for pipeline and handler tests
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mms-viewer/backend/internal/cdf"
	"github.com/mms-viewer/backend/internal/models"
)

// FakeArchive serves a file listing and file downloads the way the public archive does.
type FakeArchive struct {
	Server *httptest.Server

	mu           sync.Mutex
	listing      []models.FileRecord
	files        map[string][]byte
	queries      []url.Values
	downloads    []string
	searchStatus int
	rawListing   string
}

// NewFakeArchive starts a fake archive that is closed when the test ends.
func NewFakeArchive(t testing.TB) *FakeArchive {
	f := &FakeArchive{files: make(map[string][]byte)}
	mux := http.NewServeMux()
	mux.HandleFunc("/file_info/science", f.handleSearch)
	mux.HandleFunc("/download/science", f.handleDownload)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// FileInfoURL is the base to configure as the archive file_info endpoint.
func (f *FakeArchive) FileInfoURL() string {
	return f.Server.URL + "/file_info/"
}

// DownloadURL is the base to configure as the archive download endpoint.
func (f *FakeArchive) DownloadURL() string {
	return f.Server.URL + "/download/"
}

// AddFile lists a file and makes its content downloadable.
func (f *FakeArchive) AddFile(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listing = append(f.listing, models.FileRecord{
		FileName: name,
		FileSize: int64(len(data)),
	})
	f.files[name] = data
}

// ListOnly lists a file without making it downloadable.
func (f *FakeArchive) ListOnly(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listing = append(f.listing, models.FileRecord{FileName: name})
}

// FailSearch makes listing requests answer with status.
func (f *FakeArchive) FailSearch(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchStatus = status
}

// SetRawListing replaces the listing body verbatim.
func (f *FakeArchive) SetRawListing(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawListing = body
}

// Queries returns the query parameters of every listing request.
func (f *FakeArchive) Queries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.queries...)
}

// Downloads returns the names requested for download, in order.
func (f *FakeArchive) Downloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.downloads...)
}

func (f *FakeArchive) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, r.URL.Query())

	if f.searchStatus != 0 {
		http.Error(w, "archive unavailable", f.searchStatus)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if f.rawListing != "" {
		w.Write([]byte(f.rawListing))
		return
	}
	listing := f.listing
	if listing == nil {
		listing = []models.FileRecord{}
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"files": listing})
}

func (f *FakeArchive) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file")

	f.mu.Lock()
	f.downloads = append(f.downloads, name)
	data, ok := f.files[name]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

// FGMFile encodes a magnetometer file with n one-second records starting at start.
// Row i holds (i, -i, i/2, 100+i).
func FGMFile(t testing.TB, start time.Time, n int) []byte {
	t.Helper()
	epochs := make([]int64, n)
	b := make([]float32, 0, 4*n)
	for i := range epochs {
		epochs[i] = cdf.TimeToTT2000(start.Add(time.Duration(i) * time.Second))
		b = append(b, float32(i), float32(-i), float32(i)/2, float32(100+i))
	}
	enc := cdf.NewEncoder()
	enc.CompressVariables(true)
	enc.AddTT2000("Epoch", epochs)
	require.NoError(t, enc.AddFloat32("mms1_fgm_b_gse_srvy_l2", []int{4}, b))
	require.NoError(t, enc.AddFloat32("mms1_fgm_b_gsm_srvy_l2", []int{4}, b))

	data, err := enc.Bytes()
	require.NoError(t, err)
	return data
}
