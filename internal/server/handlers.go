package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
	"github.com/nguyentantai21042004/upload-ai/internal/store"
)

// listPrompts returns every prompt template
func (s *Server) listPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := s.store.ListPrompts(r.Context())
	if err != nil {
		jsonError(w, "failed to list prompts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, prompts)
}

// uploadVideo stores an mp3 sent as multipart field "file" and registers it as a video
func (s *Server) uploadVideo(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds %d MB", s.cfg.MaxUploadMB), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "missing file input", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".mp3" {
		jsonError(w, "invalid input type, please upload an MP3", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		jsonError(w, "failed to prepare upload dir", http.StatusInternalServerError)
		return
	}

	base := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	dest := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("%s-%s%s", base, uuid.NewString(), ext))
	if err := saveFile(file, dest); err != nil {
		s.logger.Error(r.Context(), "Failed to save upload %s: %v", dest, err)
		jsonError(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	video, err := s.store.CreateVideo(r.Context(), header.Filename, dest)
	if err != nil {
		os.Remove(dest)
		jsonError(w, "failed to create video: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info(r.Context(), "Video %s uploaded (%s, %d bytes)", video.ID, header.Filename, header.Size)
	writeJSON(w, http.StatusOK, map[string]models.Video{"video": video})
}

// createTranscription transcribes a stored video guided by the keyword prompt
func (s *Server) createTranscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		jsonError(w, "prompt is required", http.StatusBadRequest)
		return
	}

	video, err := s.store.GetVideo(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "video not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to get video: "+err.Error(), http.StatusInternalServerError)
		return
	}

	audio, err := os.ReadFile(video.Path)
	if err != nil {
		s.logger.Error(r.Context(), "Failed to read audio for %s: %v", id, err)
		jsonError(w, "failed to read audio", http.StatusInternalServerError)
		return
	}

	transcription, err := s.generator.Transcribe(r.Context(), audio, models.AudioMediaType, req.Prompt)
	if err != nil {
		s.logger.Error(r.Context(), "Transcription of %s failed: %v", id, err)
		jsonError(w, "transcription failed", http.StatusBadGateway)
		return
	}

	if err := s.store.SetTranscription(r.Context(), id, transcription); err != nil {
		jsonError(w, "failed to save transcription: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"transcription": transcription})
}

// complete streams the completion of a prompt filled with the video transcription as plain text
func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	var req models.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	video, err := s.store.GetVideo(r.Context(), req.VideoID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "video not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to get video: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if video.Transcription == "" {
		jsonError(w, "transcription was not generated yet", http.StatusBadRequest)
		return
	}

	prompt := strings.ReplaceAll(req.Prompt, models.TranscriptionPlaceholder, video.Transcription)
	rc := http.NewResponseController(w)

	started := false
	for frag, err := range s.generator.Stream(r.Context(), prompt, req.Temperature) {
		if err != nil {
			s.logger.Error(r.Context(), "Completion for %s failed: %v", req.VideoID, err)
			if !started {
				jsonError(w, "completion failed", http.StatusBadGateway)
				return
			}
			// the status is already sent; abort so the client sees a broken stream
			panic(http.ErrAbortHandler)
		}

		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := io.WriteString(w, frag); err != nil {
			s.logger.Debug(r.Context(), "Client left completion for %s: %v", req.VideoID, err)
			return
		}
		rc.Flush()
	}

	if !started {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

func saveFile(src io.Reader, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
