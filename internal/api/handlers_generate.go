package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/treeline-ai/treeline/internal/parser"
	"github.com/treeline-ai/treeline/internal/pipeline"
)

// document is an upload reduced to the flattened text the pipeline consumes.
type document struct {
	Filename string
	Title    string
	Text     string
}

// handleGenerate runs the pipeline synchronously, streaming progress events
// to the client as SSE. The stream ends with a complete event carrying the
// graph, or an error event.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sse := NewSSEWriter(w)
	sse.Init()

	log := s.log.With("filename", doc.Filename)
	log.Info("streaming generation started")

	for ev := range s.runner.Run(r.Context(), doc.Text) {
		if err := sse.WriteEvent(ev); err != nil {
			log.Warn("client disconnected", "error", err)
			return
		}
	}
}

// handleSubmit queues an asynchronous run and returns its ID for polling.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	run := pipeline.NewRun(doc.Filename, doc.Title, doc.Text)
	if err := s.orchestrator.Submit(run); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":   run.ID,
		"status":   "queued",
		"poll_url": fmt.Sprintf("/api/graphs/%s/status", run.ID),
	})
}

// readDocument accepts either a multipart upload (field "file") or a JSON
// body {"text": ..., "title": ...} and returns the flattened document text.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		return s.readUpload(r)
	}

	var body struct {
		Text  string `json:"text"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return document{}, fmt.Errorf("invalid request body: %w", err)
	}
	if strings.TrimSpace(body.Text) == "" {
		return document{}, fmt.Errorf("text is required")
	}
	return document{Title: body.Title, Text: body.Text}, nil
}

func (s *Server) readUpload(r *http.Request) (document, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return document{}, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return document{}, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return document{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return document{}, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return document{}, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}

	p, err := parser.ForFile(filename)
	if err != nil {
		return document{}, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return document{}, fmt.Errorf("parse %s: %w", filename, err)
	}

	title := r.FormValue("title")
	if title == "" {
		title = tree.Title
	}

	text := tree.Flatten()
	if strings.TrimSpace(text) == "" {
		return document{}, fmt.Errorf("document contains no extractable text")
	}

	return document{Filename: filename, Title: title, Text: text}, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
