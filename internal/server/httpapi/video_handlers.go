package httpapi

import (
	"net/http"
	"time"

	"github.com/avolkov/clipvault/internal/server/auth"
	"github.com/avolkov/clipvault/internal/server/videos"
)

type videoResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func videoResponseFrom(v *videos.Video) videoResponse {
	return videoResponse{
		ID:          v.ID,
		OwnerID:     v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		ContentType: v.ContentType,
		SizeBytes:   v.SizeBytes,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
	}
}

type videoMetaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *HTTPServer) handleRequestUpload(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ContentType string `json:"contentType"`
		SizeBytes   int64  `json:"sizeBytes"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	grant, err := s.videos.RequestUpload(r.Context(), identity, req.Title, req.Description, req.ContentType, req.SizeBytes)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Upload requested", "videoID", grant.Video.ID, "ownerID", identity.UserID)
	writeJSON(w, http.StatusCreated, struct {
		Video     videoResponse `json:"video"`
		UploadURL string        `json:"uploadUrl"`
	}{videoResponseFrom(grant.Video), grant.UploadURL})
}

func (s *HTTPServer) handleCompleteUpload(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.videos.CompleteUpload(r.Context(), identity, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (s *HTTPServer) handleListVideos(w http.ResponseWriter, r *http.Request) {

	list, err := s.videos.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]videoResponse, 0, len(list))
	for _, v := range list {
		result = append(result, videoResponseFrom(v))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleListMyVideos(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	list, err := s.videos.ListByOwner(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]videoResponse, 0, len(list))
	for _, v := range list {
		result = append(result, videoResponseFrom(v))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleGetVideo(w http.ResponseWriter, r *http.Request) {

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	video, err := s.videos.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, videoResponseFrom(video))
}

func (s *HTTPServer) handleStreamVideo(w http.ResponseWriter, r *http.Request) {

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())

	url, err := s.videos.StreamURL(r.Context(), identity, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		StreamURL string `json:"streamUrl"`
	}{url})
}

func (s *HTTPServer) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req videoMetaRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.videos.UpdateMeta(r.Context(), identity, id, req.Title, req.Description); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (s *HTTPServer) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {

	identity, _ := auth.IdentityFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.videos.Delete(r.Context(), identity, id); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Video deleted", "videoID", id)
	writeJSON(w, http.StatusOK, nil)
}
