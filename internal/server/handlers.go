package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	cvgen "github.com/alnah/go-cvgen"
)

// Codes for failures that never reach the generator.
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeBusy           = "BUSY"
)

// saveBodyOverhead is the JSON framing allowed on top of the file content
// in POST /files/save.
const saveBodyOverhead = 64 << 10

// multipartMemory is how much of an upload is held in memory before
// spilling to a temp file.
const multipartMemory = 1 << 20

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Person   string `json:"person"`
	Lang     string `json:"lang,omitempty"`
	Template string `json:"template,omitempty"`
}

// CreateRequest is the body of POST /create.
type CreateRequest struct {
	Person string `json:"person"`
	Name   string `json:"name,omitempty"`
}

// PersonRequest is the body of POST /delete-person.
type PersonRequest struct {
	Person string `json:"person"`
}

// SaveFileRequest is the body of POST /files/save.
type SaveFileRequest struct {
	Person  string `json:"person"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	// Details holds the full compiler output for COMPILE_FAILED.
	Details string `json:"details,omitempty"`
}

// CreateResponse is the body of a successful POST /create.
type CreateResponse struct {
	Success bool     `json:"success"`
	Person  string   `json:"person"`
	Dir     string   `json:"dir"`
	Files   []string `json:"files"`
}

// UploadResponse is the body of a successful POST /upload-picture.
type UploadResponse struct {
	Success bool   `json:"success"`
	Person  string `json:"person"`
	Path    string `json:"path"`
}

// DeleteResponse is the body of a successful POST /delete-person.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Person  string `json:"person"`
}

// FileTreeResponse is the body of GET /files/tree.
type FileTreeResponse struct {
	Success bool               `json:"success"`
	Person  string             `json:"person"`
	Files   []cvgen.PersonFile `json:"files"`
}

// SaveFileResponse is the body of a successful POST /files/save.
type SaveFileResponse struct {
	Success bool   `json:"success"`
	Person  string `json:"person"`
	Path    string `json:"path"`
}

// TemplatesResponse is the body of GET /templates.
type TemplatesResponse struct {
	Success   bool                `json:"success"`
	Templates []cvgen.VariantInfo `json:"templates"`
}

// PersonsResponse is the body of GET /persons.
type PersonsResponse struct {
	Success bool     `json:"success"`
	Persons []string `json:"persons"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, TemplatesResponse{
		Success:   true,
		Templates: s.gen.Templates(s.cfg.Dirs.Templates),
	})
}

func (s *Server) handlePersons(w http.ResponseWriter, _ *http.Request) {
	persons, err := s.persons.List()
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if persons == nil {
		persons = []string{}
	}
	s.writeJSON(w, http.StatusOK, PersonsResponse{Success: true, Persons: persons})
}

// handleGenerate renders a PDF and streams it back.
// POST /generate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body: "+err.Error())
		return
	}

	req, err := cvgen.NewRequest(body.Person, body.Lang, body.Template, s.cfg.Dirs)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	if err := s.pool.Acquire(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, codeBusy, "no generation slot available: "+err.Error())
		return
	}
	defer s.pool.Release()

	data, res, err := s.gen.GenerateBytes(r.Context(), req)
	if err != nil {
		s.log.Warn("generation failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("person", req.Person),
			zap.String("code", cvgen.ErrorCode(err)),
			zap.Error(err))
		s.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", cvgen.OutputFileName(res.Person, res.Variant, res.Lang)))
	w.Header().Set("X-Job-ID", res.JobID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleCreate scaffolds a person directory.
// POST /create
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body: "+err.Error())
		return
	}

	created, err := s.persons.Create(body.Person, body.Name)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, CreateResponse{
		Success: true,
		Person:  created.Person,
		Dir:     created.Dir,
		Files:   created.Files,
	})
}

// handleUploadPicture stores a person's profile picture.
// POST /upload-picture (multipart: person, file)
func (s *Server) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	// Headroom for the person field and multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeFailure(w, fmt.Errorf("%w: max %d bytes", cvgen.ErrImageTooLarge, s.cfg.MaxUploadBytes))
			return
		}
		s.writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, codeInvalidRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	person := r.FormValue("person")
	path, err := s.persons.SaveProfileImage(person, file, s.cfg.MaxUploadBytes)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, UploadResponse{Success: true, Person: person, Path: path})
}

// handleDeletePerson removes a person directory.
// POST /delete-person
func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	var body PersonRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.persons.Delete(body.Person); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Person: body.Person})
}

// handlePicture serves a person's profile picture.
// GET /picture/{person}
func (s *Server) handlePicture(w http.ResponseWriter, r *http.Request) {
	path, err := s.persons.ProfileImage(chi.URLParam(r, "person"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	f, err := os.Open(path) // #nosec G304 -- resolved by the person store
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	// Uploads keep the profile.png name whatever their format.
	header := make([]byte, 8)
	n, _ := io.ReadFull(f, header)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.writeFailure(w, err)
		return
	}
	contentType := "image/png"
	if cvgen.ImageFormat(header[:n]) == "jpeg" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, "", info.ModTime(), f)
}

// handleFileTree lists a person's editable files.
// GET /files/tree?person=
func (s *Server) handleFileTree(w http.ResponseWriter, r *http.Request) {
	person := r.URL.Query().Get("person")
	files, err := s.persons.Files(person)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, FileTreeResponse{Success: true, Person: person, Files: files})
}

// handleFileContent returns one person file as text.
// GET /files/content?person=&path=
func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	content, err := s.persons.ReadFile(q.Get("person"), q.Get("path"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, content)
}

// handleFileSave replaces one person file.
// POST /files/save
func (s *Server) handleFileSave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, cvgen.MaxPersonFileBytes+saveBodyOverhead)

	var body SaveFileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeFailure(w, fmt.Errorf("%w: max %d bytes", cvgen.ErrFileTooLarge, cvgen.MaxPersonFileBytes))
			return
		}
		s.writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body: "+err.Error())
		return
	}

	if _, err := s.persons.WriteFile(body.Person, body.Path, strings.NewReader(body.Content)); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SaveFileResponse{Success: true, Person: body.Person, Path: body.Path})
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cvgen.ErrInvalidLanguage),
		errors.Is(err, cvgen.ErrUnsupportedVariant),
		errors.Is(err, cvgen.ErrInvalidPerson),
		errors.Is(err, cvgen.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, cvgen.ErrPersonNotFound),
		errors.Is(err, cvgen.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, cvgen.ErrPersonExists):
		return http.StatusConflict
	case errors.Is(err, cvgen.ErrImageTooLarge),
		errors.Is(err, cvgen.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, cvgen.ErrInvalidImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, cvgen.ErrMissingAsset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cvgen.ErrCompileTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, cvgen.ErrCompileFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Success: false, Error: cvgen.ErrorCode(err), Message: err.Error()}
	var compile *cvgen.CompileError
	if errors.As(err, &compile) {
		resp.Details = compile.Diagnostics
	}
	s.writeJSON(w, statusFor(err), resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{Success: false, Error: code, Message: message})
}
