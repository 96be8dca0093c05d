package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/meetscribe/config"
	"github.com/otherjamesbrown/meetscribe/pkg/ingest"
	"github.com/otherjamesbrown/meetscribe/pkg/logging"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
	"github.com/otherjamesbrown/meetscribe/pkg/storage"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	cfg := config.Default()
	cfg.StreamPollInterval = 5 * time.Millisecond
	mem := store.NewMemory()
	srv := New(cfg, Deps{
		Stores: mem.Stores(),
		Files:  storage.NewFileStore(t.TempDir()),
		Logger: logging.NewNopLogger(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, mem
}

// multipartUpload builds a multipart body with the given files and fields.
func multipartUpload(t *testing.T, fileField string, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	ts, mem := newTestServer(t)

	body, contentType := multipartUpload(t, "files", map[string][]byte{
		"2025-11-10_14-33-23.mp3": []byte("audio"),
	}, map[string]string{
		"language":    "en",
		"minSpeakers": "2",
		"maxSpeakers": "4",
		"meetingName": "standup",
	})

	resp, err := http.Post(ts.URL+"/api/recordings/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result ingest.UploadResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Recordings, 1)
	assert.NotEmpty(t, result.MeetingID)
	assert.Equal(t, model.RecordingStatusProcessing, result.Recordings[0].Status)

	jobs, err := mem.Jobs.ListByRecording(context.Background(), result.Recordings[0].ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestUploadEndpointBadSpeakerRange(t *testing.T) {
	ts, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "files", map[string][]byte{
		"2025-11-10_14-33-23.mp3": []byte("audio"),
	}, map[string]string{
		"minSpeakers": "5",
		"maxSpeakers": "2",
	})

	resp, err := http.Post(ts.URL+"/api/recordings/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRecording(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()

	id, err := mem.Recordings.Insert(ctx, &model.Recording{
		OriginalFilename: "2025-11-10_14-33-23.mp3",
		Status:           model.RecordingStatusCompleted,
	})
	require.NoError(t, err)
	_, err = mem.Segments.Insert(ctx, &model.SpeakerSegment{
		RecordingID:   id,
		SpeakerLabel:  "SPEAKER_00",
		Transcription: "Hello there.",
	})
	require.NoError(t, err)
	job := model.NewProcessingJob(id, model.JobTypeFull, model.JobParams{})
	_, err = mem.Jobs.Insert(ctx, job)
	require.NoError(t, err)
	require.NoError(t, mem.Tags.Upsert(ctx, id, "SPEAKER_00", "Alice"))

	resp, err := http.Get(ts.URL + "/api/recordings/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail struct {
		model.Recording
		Segments    []model.SpeakerSegment `json:"segments"`
		Jobs        []model.ProcessingJob  `json:"jobs"`
		SpeakerTags []model.SpeakerTag     `json:"speakerTags"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, id, detail.ID)
	require.Len(t, detail.Segments, 1)
	assert.Equal(t, "Hello there.", detail.Segments[0].Transcription)
	require.Len(t, detail.Jobs, 1)
	assert.Equal(t, model.JobStatusQueued, detail.Jobs[0].Status)
	require.Len(t, detail.SpeakerTags, 1)
	assert.Equal(t, "Alice", detail.SpeakerTags[0].UserAssignedName)

	missing, err := http.Get(ts.URL + "/api/recordings/missing")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestListRecordings(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := mem.Recordings.Insert(ctx, &model.Recording{Status: model.RecordingStatusPending})
		require.NoError(t, err)
	}

	resp, err := http.Get(ts.URL + "/api/recordings?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Recordings []model.Recording `json:"recordings"`
		Total      int64             `json:"total"`
		HasMore    bool              `json:"hasMore"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Recordings, 2)
	assert.True(t, page.HasMore)

	last, err := http.Get(ts.URL + "/api/recordings?limit=2&offset=2")
	require.NoError(t, err)
	defer last.Body.Close()
	require.NoError(t, json.NewDecoder(last.Body).Decode(&page))
	assert.Len(t, page.Recordings, 1)
	assert.False(t, page.HasMore)

	bad, err := http.Get(ts.URL + "/api/recordings?limit=nope")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestListMeetings(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)
	standupID, err := mem.Meetings.Insert(ctx, &model.Meeting{
		Name:        "standup",
		ScheduledAt: base.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = mem.Meetings.Insert(ctx, &model.Meeting{
		Name:        "retro",
		ScheduledAt: base,
	})
	require.NoError(t, err)

	_, err = mem.Recordings.Insert(ctx, &model.Recording{
		MeetingID:        standupID,
		OriginalFilename: "2025-11-10_14-33-23.mp3",
		Status:           model.RecordingStatusCompleted,
		Progress:         100,
		DurationSeconds:  61.5,
	})
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/meetings")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Meetings []struct {
			model.Meeting
			Recordings []struct {
				ID               string  `json:"id"`
				OriginalFilename string  `json:"originalFilename"`
				Status           string  `json:"status"`
				Progress         int     `json:"progress"`
				DurationSeconds  float64 `json:"durationSeconds"`
			} `json:"recordings"`
		} `json:"meetings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Meetings, 2)

	// Newest scheduled first.
	assert.Equal(t, "standup", body.Meetings[0].Name)
	require.Len(t, body.Meetings[0].Recordings, 1)
	got := body.Meetings[0].Recordings[0]
	assert.Equal(t, "2025-11-10_14-33-23.mp3", got.OriginalFilename)
	assert.Equal(t, string(model.RecordingStatusCompleted), got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, 61.5, got.DurationSeconds)

	assert.Equal(t, "retro", body.Meetings[1].Name)
	require.NotNil(t, body.Meetings[1].Recordings)
	assert.Empty(t, body.Meetings[1].Recordings)
}

func TestTranscriptionFormats(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()

	base := time.Date(2025, 11, 10, 14, 33, 23, 0, time.UTC)
	_, err := mem.Segments.Insert(ctx, &model.SpeakerSegment{
		RecordingID:   "rec1",
		SpeakerLabel:  "SPEAKER_00",
		StartTime:     base,
		EndTime:       base.Add(4 * time.Second),
		Transcription: "Hello there.",
	})
	require.NoError(t, err)
	require.NoError(t, mem.Tags.Upsert(ctx, "rec1", "SPEAKER_00", "Alice"))

	get := func(format string) (*http.Response, string) {
		resp, err := http.Get(ts.URL + "/api/recordings/rec1/transcription?format=" + format)
		require.NoError(t, err)
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(data)
	}

	resp, body := get("txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, body, "[2025-11-10T14:33:23.000Z] Alice: Hello there.")

	resp, body = get("srt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "1\n14:33:23,000 --> 14:33:27,000\n"))

	resp, body = get("vtt")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/vtt")
	assert.True(t, strings.HasPrefix(body, "WEBVTT\n\n"))

	resp, body = get("")
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Contains(t, body, "Hello there.")

	resp, _ = get("pdf")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReprocessEndpoint(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()

	id, err := mem.Recordings.Insert(ctx, &model.Recording{
		Status:   model.RecordingStatusFailed,
		Language: "es",
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/recordings/"+id+"/reprocess", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.JobID)

	job, err := mem.Jobs.Get(ctx, body.JobID)
	require.NoError(t, err)
	assert.Equal(t, "es", job.Language)
}

func TestJobStreamSSE(t *testing.T) {
	ts, mem := newTestServer(t)

	job := model.NewProcessingJob("rec1", model.JobTypeFull, model.JobParams{})
	_, err := mem.Jobs.Insert(context.Background(), job)
	require.NoError(t, err)

	done := *job
	done.Status = model.JobStatusCompleted
	done.Progress = 100
	for i := range done.Steps {
		done.Steps[i].Status = model.StepStatusCompleted
	}
	mem.Jobs.Put(done)

	resp, err := http.Get(ts.URL + "/api/jobs/" + job.ID + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var types []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		types = append(types, event.Type)
	}

	require.GreaterOrEqual(t, len(types), 3)
	assert.Equal(t, "connected", types[0])
	assert.Contains(t, types, "progress")
	assert.Equal(t, "completed", types[len(types)-1])
}

func TestJobStreamUnknownJob(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/jobs/missing/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"connected"`)
	assert.Contains(t, string(data), "Job not found")
}

func TestTagSegmentEndpoint(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()

	segID, err := mem.Segments.Insert(ctx, &model.SpeakerSegment{
		RecordingID:  "rec1",
		SpeakerLabel: "SPEAKER_00",
	})
	require.NoError(t, err)

	for _, name := range []string{"Alice", "Alicia"} {
		resp, err := http.Post(ts.URL+"/api/segments/"+segID+"/tag",
			"application/json", strings.NewReader(fmt.Sprintf(`{"name":%q}`, name)))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	tags, err := mem.Tags.ListByRecording(ctx, "rec1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Alicia", tags[0].UserAssignedName)
}

func TestSpeakerEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	enroll := func(name string) *http.Response {
		body, contentType := multipartUpload(t, "sample", map[string][]byte{
			"voice.wav": []byte("sample"),
		}, map[string]string{"name": name})
		resp, err := http.Post(ts.URL+"/api/speakers", contentType, body)
		require.NoError(t, err)
		return resp
	}

	resp := enroll("Alice")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sp model.KnownSpeaker
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sp))
	resp.Body.Close()

	dup := enroll("Alice")
	dup.Body.Close()
	assert.Equal(t, http.StatusConflict, dup.StatusCode)

	// PUT and PATCH are interchangeable for speaker updates.
	for _, method := range []string{http.MethodPatch, http.MethodPut} {
		req, err := http.NewRequest(method, ts.URL+"/api/speakers/"+sp.ID,
			strings.NewReader(`{"description":"team lead"}`))
		require.NoError(t, err)
		updateResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, updateResp.StatusCode)
		var updated model.KnownSpeaker
		require.NoError(t, json.NewDecoder(updateResp.Body).Decode(&updated))
		updateResp.Body.Close()
		assert.Equal(t, "team lead", updated.Description)
	}

	del, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/speakers/"+sp.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	listResp, err := http.Get(ts.URL + "/api/speakers")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var listed []model.KnownSpeaker
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	assert.Empty(t, listed)
}

func TestDeleteRecordingEndpoint(t *testing.T) {
	ts, mem := newTestServer(t)
	ctx := context.Background()

	id, err := mem.Recordings.Insert(ctx, &model.Recording{
		Status: model.RecordingStatusCompleted,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/recordings/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = mem.Recordings.Get(ctx, id)
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthzUnhealthy(t *testing.T) {
	cfg := config.Default()
	mem := store.NewMemory()
	srv := New(cfg, Deps{
		Stores: mem.Stores(),
		Files:  storage.NewFileStore(t.TempDir()),
		Logger: logging.NewNopLogger(),
		Health: func(ctx context.Context) error {
			return errors.New("mongo unreachable")
		},
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "go_goroutines")
}
