package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
	"github.com/otherjamesbrown/meetscribe/pkg/ingest"
	"github.com/otherjamesbrown/meetscribe/pkg/model"
	"github.com/otherjamesbrown/meetscribe/pkg/observability"
	"github.com/otherjamesbrown/meetscribe/pkg/store"
	"github.com/otherjamesbrown/meetscribe/pkg/transcript"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// file parts spill to temporary files.
const maxUploadMemory = 32 << 20

// handleUpload accepts a multipart batch: one or more "files" parts plus
// optional language, minSpeakers, maxSpeakers, meetingName and
// meetingDateTime fields.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, r, mserrors.Validationf("body", "invalid multipart form: %v", err))
		return
	}

	opts, err := uploadOptionsFromForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var files []ingest.RawFile
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				s.writeError(w, r, mserrors.Validationf("files", "unreadable file part %q: %v", header.Filename, err))
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				s.writeError(w, r, mserrors.Validationf("files", "unreadable file part %q: %v", header.Filename, err))
				return
			}
			files = append(files, ingest.RawFile{Name: header.Filename, Data: data})
		}
	}

	result, err := s.orch.Upload(r.Context(), files, opts)
	if err != nil {
		s.metrics.UploadBatchesTotal.WithLabelValues("error").Inc()
		s.writeError(w, r, err)
		return
	}

	s.metrics.UploadBatchesTotal.WithLabelValues("ok").Inc()
	s.metrics.RecordingsCreated.Add(float64(len(result.Recordings)))
	writeJSON(w, http.StatusCreated, result)
}

// uploadOptionsFromForm parses the non-file upload fields.
func uploadOptionsFromForm(r *http.Request) (ingest.UploadOptions, error) {
	opts := ingest.UploadOptions{
		Language:    r.FormValue("language"),
		MeetingName: r.FormValue("meetingName"),
	}

	for field, dst := range map[string]*int{
		"minSpeakers": &opts.MinSpeakers,
		"maxSpeakers": &opts.MaxSpeakers,
	} {
		if v := r.FormValue(field); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return opts, mserrors.Validationf(field, "not a number: %q", v)
			}
			*dst = n
		}
	}

	if v := r.FormValue("meetingDateTime"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, mserrors.Validationf("meetingDateTime", "not an RFC 3339 timestamp: %q", v)
		}
		opts.ScheduledAt = ts
	}
	return opts, nil
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	opts := store.ListRecordingsOptions{
		Status: model.RecordingStatus(r.URL.Query().Get("status")),
	}
	var err error
	if opts.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Offset, err = queryInt(r, "offset"); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.stores.Recordings.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recordings": list.Recordings,
		"total":      list.Total,
		"hasMore":    int64(opts.Offset+len(list.Recordings)) < list.Total,
	})
}

// recordingDetail is the aggregated detail response: the recording document
// plus everything it owns.
type recordingDetail struct {
	model.Recording
	Segments    []model.SpeakerSegment `json:"segments"`
	Jobs        []model.ProcessingJob  `json:"jobs"`
	SpeakerTags []model.SpeakerTag     `json:"speakerTags"`
}

func (s *Server) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	rec, err := s.stores.Recordings.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	segments, err := s.stores.Segments.ListByRecording(ctx, id, store.SegmentFilter{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jobs, err := s.stores.Jobs.ListByRecording(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tags, err := s.stores.Tags.ListByRecording(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recordingDetail{
		Recording:   *rec,
		Segments:    segments,
		Jobs:        jobs,
		SpeakerTags: tags,
	})
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.DeleteRecording(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.RecordingsDeleted.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	filter := store.SegmentFilter{
		SpeakerLabel:        r.URL.Query().Get("speakerLabel"),
		IdentifiedSpeakerID: r.URL.Query().Get("identifiedSpeakerId"),
	}
	segments, err := s.stores.Segments.ListByRecording(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, segments)
}

// handleTranscription projects a recording's segments into the requested
// format (?format=json|txt|srt|vtt, default json).
func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	format, err := transcript.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recordingID := r.PathValue("id")
	ctx, span := s.tracer.StartRenderSpan(r.Context(), recordingID, string(format))
	defer span.End()
	helper := observability.NewSpanHelper(span)
	start := time.Now()

	segments, err := s.stores.Segments.ListByRecording(ctx, recordingID, store.SegmentFilter{})
	if err != nil {
		helper.SetError(err)
		s.writeError(w, r, err)
		return
	}

	if format == transcript.FormatJSON {
		helper.SetDuration(time.Since(start).Milliseconds())
		helper.SetSuccess()
		writeJSON(w, http.StatusOK, segments)
		return
	}

	tags, err := s.stores.Tags.ListByRecording(ctx, recordingID)
	if err != nil {
		helper.SetError(err)
		s.writeError(w, r, err)
		return
	}
	body, err := transcript.Render(format, segments, transcript.TagMap(tags))
	if err != nil {
		helper.SetError(err)
		s.writeError(w, r, err)
		return
	}
	helper.SetDuration(time.Since(start).Milliseconds())
	helper.SetSuccess()
	writeText(w, format.ContentType(), body)
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	job, err := s.reproc.Reprocess(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ReprocessTotal.Inc()
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": job.ID})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.stores.Jobs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// recordingSummary is the per-meeting recording digest in the meetings
// listing.
type recordingSummary struct {
	ID               string                `json:"id"`
	OriginalFilename string                `json:"originalFilename"`
	Status           model.RecordingStatus `json:"status"`
	Progress         int                   `json:"progress"`
	DurationSeconds  float64               `json:"durationSeconds"`
	CreatedAt        time.Time             `json:"createdAt"`
}

type meetingWithRecordings struct {
	model.Meeting
	Recordings []recordingSummary `json:"recordings"`
}

// handleListMeetings returns meetings newest first, each with a summary of
// the recordings that landed in it.
func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	meetings, err := s.stores.Meetings.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	meetingIDs := make([]string, 0, len(meetings))
	for _, m := range meetings {
		meetingIDs = append(meetingIDs, m.ID)
	}
	recordings, err := s.stores.Recordings.ListByMeetings(r.Context(), meetingIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	byMeeting := make(map[string][]recordingSummary)
	for _, rec := range recordings {
		byMeeting[rec.MeetingID] = append(byMeeting[rec.MeetingID], recordingSummary{
			ID:               rec.ID,
			OriginalFilename: rec.OriginalFilename,
			Status:           rec.Status,
			Progress:         rec.Progress,
			DurationSeconds:  rec.DurationSeconds,
			CreatedAt:        rec.CreatedAt,
		})
	}

	out := make([]meetingWithRecordings, 0, len(meetings))
	for _, m := range meetings {
		summaries := byMeeting[m.ID]
		if summaries == nil {
			summaries = []recordingSummary{}
		}
		out = append(out, meetingWithRecordings{Meeting: m, Recordings: summaries})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"meetings": out})
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, mserrors.Validationf(name, "must be a non-negative integer, got %q", v)
	}
	return n, nil
}
