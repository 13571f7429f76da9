package headshots

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{BaseURL: url, Timeout: 5 * time.Second}, testLogger())
}

func TestUploadBatchWireFormat(t *testing.T) {
	var gotPath string
	var gotFiles []string
	var gotContents []string
	var gotMetas []map[string]string
	var gotProject string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		require.NoError(t, r.ParseMultipartForm(1<<20))
		for _, header := range r.MultipartForm.File["files"] {
			gotFiles = append(gotFiles, header.Filename)
			src, err := header.Open()
			require.NoError(t, err)
			content, err := io.ReadAll(src)
			src.Close()
			require.NoError(t, err)
			gotContents = append(gotContents, string(content))
		}

		require.NoError(t, json.Unmarshal([]byte(r.FormValue("metas")), &gotMetas))
		gotProject = r.FormValue("project_title")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"status": "uploaded"},
				{"status": "skipped_existing"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	items := []BatchItem{
		{AttorneyID: "a1", FileName: "jane_smith.png", Content: []byte("one")},
		{AttorneyID: "a2", FileName: "robert_jones.jpg", Content: []byte("two")},
	}

	results, err := client.UploadBatch(context.Background(), "Acme Deal", items)
	require.NoError(t, err)

	assert.Equal(t, "/admin/upload-attorney-image-batch", gotPath)
	assert.Equal(t, "Acme Deal", gotProject)

	// Files and metas travel in the same order; the backend pairs them by
	// position
	assert.Equal(t, []string{"jane_smith.png", "robert_jones.jpg"}, gotFiles)
	assert.Equal(t, []string{"one", "two"}, gotContents)
	require.Len(t, gotMetas, 2)
	assert.Equal(t, "a1", gotMetas[0]["attorney_id"])
	assert.Equal(t, "a2", gotMetas[1]["attorney_id"])

	require.Len(t, results, 2)
	assert.Equal(t, "uploaded", results[0].Status)
	assert.Equal(t, "skipped_existing", results[1].Status)
}

func TestUploadBatchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.UploadBatch(context.Background(), "Acme Deal", []BatchItem{
		{AttorneyID: "a1", FileName: "jane_smith.png", Content: []byte("one")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestUploadSingleWireFormat(t *testing.T) {
	var gotPath, gotAttorney, gotProject, gotFile string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotAttorney = r.FormValue("attorney_id")
		gotProject = r.FormValue("project_title")
		if headers := r.MultipartForm.File["file"]; len(headers) == 1 {
			gotFile = headers[0].Filename
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.UploadSingle(context.Background(), "Acme Deal", "a1", "jane_smith.png", []byte("one"))
	require.NoError(t, err)

	assert.Equal(t, "/admin/upload-attorney-image", gotPath)
	assert.Equal(t, "a1", gotAttorney)
	assert.Equal(t, "Acme Deal", gotProject)
	assert.Equal(t, "jane_smith.png", gotFile)
}

func TestUploadSingleFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.UploadSingle(context.Background(), "Acme Deal", "a1", "jane_smith.png", []byte("one"))
	assert.Error(t, err)
}
