// Package resizortest provides an in-process fake of the Resizor image API.
//
// The fake verifies request signatures with the same canonicalization the client uses,
// keeps image metadata in memory and image bytes in a storage.BlobStore.
//
//	srv := resizortest.Start(t, resizortest.Options{AccessKey: "key", SecretKey: "secret"})
//	repo, _ := resizor.New(srv.Config(), transport.NewHTTP())
package resizortest

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/resizor-go/pkg/resizor"
	"github.com/tendant/resizor-go/pkg/resizor/signature"
	"github.com/tendant/resizor-go/pkg/resizor/storage"
	"github.com/tendant/resizor-go/pkg/resizor/storage/memory"
)

// Options configures the fake service
type Options struct {
	APIVersion string // default "v1"
	AccessKey  string
	SecretKey  string
	Algorithm  signature.Algorithm

	// Store keeps uploaded bytes; defaults to an in-memory backend.
	Store storage.BlobStore

	// MaxSkew rejects timestamps further than this from Now. Zero disables the check.
	MaxSkew time.Duration
	Now     func() time.Time

	// MaxUploadBytes bounds multipart bodies; default 32 MiB.
	MaxUploadBytes int64

	Logger *slog.Logger
}

type imageRecord struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	FileName    string    `json:"file_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	blobKey     string
	numericHint int64
}

// Server is the fake Resizor service
type Server struct {
	opts   Options
	signer *signature.Signer

	mu      sync.RWMutex
	images  map[string]*imageRecord
	nextID  int64
	baseURL string
}

// NewServer creates a fake service. Call Handler to mount it.
func NewServer(opts Options) *Server {
	if opts.APIVersion == "" {
		opts.APIVersion = "v1"
	}
	if opts.Store == nil {
		opts.Store = memory.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		opts: opts,
		signer: signature.New(
			signature.WithSecretKey(opts.SecretKey),
			signature.WithAlgorithm(opts.Algorithm),
		),
		images: make(map[string]*imageRecord),
		nextID: 1,
	}
}

// SetBaseURL sets the public address used when rendering image URLs
func (s *Server) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = baseURL
}

// Handler returns the chi router serving the API
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/{version}/{accessKey}", func(r chi.Router) {
		r.Use(s.requireAccount)
		r.Get("/images.json", s.listImages)
		r.Post("/images.json", s.storeImage)
		r.Get("/images/{id}.json", s.findImage)
		r.Delete("/images/{id}.json", s.deleteImage)
	})
	r.Get("/files/{id}", s.serveFile)

	return r
}

// Len returns the number of stored images
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// TestServer couples a fake service with the httptest server hosting it
type TestServer struct {
	*Server
	HTTP *httptest.Server
}

// Start launches the fake on a local httptest server that is closed when t finishes
func Start(t testing.TB, opts Options) *TestServer {
	t.Helper()

	srv := NewServer(opts)
	ts := httptest.NewServer(srv.Handler())
	srv.SetBaseURL(ts.URL)
	t.Cleanup(ts.Close)

	return &TestServer{Server: srv, HTTP: ts}
}

// Config returns a client configuration pointing at the running fake
func (ts *TestServer) Config() resizor.Config {
	return resizor.Config{
		Host:               ts.HTTP.URL,
		APIVersion:         ts.opts.APIVersion,
		AccessKey:          ts.opts.AccessKey,
		SecretKey:          ts.opts.SecretKey,
		SignatureAlgorithm: ts.opts.Algorithm,
	}
}

func (s *Server) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "version") != s.opts.APIVersion {
			renderErrors(w, r, http.StatusNotFound, "unknown api version")
			return
		}
		if chi.URLParam(r, "accessKey") != s.opts.AccessKey {
			renderErrors(w, r, http.StatusNotFound, "unknown access key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listImages(w http.ResponseWriter, r *http.Request) {
	params := signature.Params{}
	for k, v := range r.URL.Query() {
		if k != resizor.ParamSignature && len(v) > 0 {
			params[k] = v[0]
		}
	}
	if !s.authorize(w, r, params, r.URL.Query().Get(resizor.ParamSignature)) {
		return
	}

	s.mu.RLock()
	records := make([]imageRecord, 0, len(s.images))
	for _, rec := range s.images {
		records = append(records, *rec)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].numericHint != records[j].numericHint {
			return records[i].numericHint < records[j].numericHint
		}
		return records[i].ID < records[j].ID
	})

	render.Status(r, http.StatusOK)
	render.JSON(w, r, records)
}

func (s *Server) findImage(w http.ResponseWriter, r *http.Request) {
	id := imageIDParam(r)
	params := signature.Params{
		resizor.ParamTimestamp: r.URL.Query().Get(resizor.ParamTimestamp),
		resizor.ParamID:        id,
	}
	if !s.authorize(w, r, params, r.URL.Query().Get(resizor.ParamSignature)) {
		return
	}

	s.mu.RLock()
	rec, ok := s.images[id]
	var found imageRecord
	if ok {
		found = *rec
	}
	s.mu.RUnlock()
	if !ok {
		renderErrors(w, r, http.StatusNotFound, "image not found")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]any{"image": found})
}

func (s *Server) deleteImage(w http.ResponseWriter, r *http.Request) {
	id := imageIDParam(r)
	params := signature.Params{
		resizor.ParamTimestamp: r.URL.Query().Get(resizor.ParamTimestamp),
		resizor.ParamID:        id,
	}
	if !s.authorize(w, r, params, r.URL.Query().Get(resizor.ParamSignature)) {
		return
	}

	s.mu.Lock()
	rec, ok := s.images[id]
	if ok {
		delete(s.images, id)
	}
	s.mu.Unlock()
	if !ok {
		renderErrors(w, r, http.StatusNotFound, "image not found")
		return
	}

	if err := s.opts.Store.Delete(r.Context(), rec.blobKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.opts.Logger.Error("Failed to delete image bytes", "id", id, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		renderErrors(w, r, http.StatusUnprocessableEntity, "request must be multipart/form-data")
		return
	}

	params := signature.Params{}
	for k, v := range r.MultipartForm.Value {
		if k != resizor.ParamSignature && len(v) > 0 {
			params[k] = v[0]
		}
	}
	if !s.authorize(w, r, params, r.FormValue(resizor.ParamSignature)) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		renderErrors(w, r, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		renderErrors(w, r, http.StatusUnprocessableEntity, "file is not a supported image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		renderErrors(w, r, http.StatusInternalServerError, "failed to read upload")
		return
	}

	s.mu.Lock()
	id := params[resizor.ParamID]
	if id == "" {
		id = strconv.FormatInt(s.nextID, 10)
	}
	if _, taken := s.images[id]; taken {
		s.mu.Unlock()
		renderErrors(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("id %s has already been taken", id))
		return
	}
	rec := &imageRecord{ID: id, blobKey: "images/" + uuid.NewString()}
	s.images[id] = rec
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		rec.numericHint = n
		if n >= s.nextID {
			s.nextID = n + 1
		}
	} else {
		rec.numericHint = 1<<63 - 1
	}
	baseURL := s.baseURL
	s.mu.Unlock()

	mimeType := "image/" + format
	size, err := s.opts.Store.Put(r.Context(), rec.blobKey, file, mimeType)
	if err != nil {
		s.mu.Lock()
		delete(s.images, id)
		s.mu.Unlock()
		s.opts.Logger.Error("Failed to store image bytes", "id", id, "err", err)
		renderErrors(w, r, http.StatusInternalServerError, "failed to store image")
		return
	}

	s.mu.Lock()
	rec.URL = baseURL + "/files/" + url.PathEscape(id)
	rec.Width = cfg.Width
	rec.Height = cfg.Height
	rec.MimeType = mimeType
	rec.Size = size
	rec.FileName = header.Filename
	rec.CreatedAt = s.opts.Now().UTC().Truncate(time.Second)
	stored := *rec
	s.mu.Unlock()

	s.opts.Logger.Info("Stored image", "id", id, "size", size, "mime_type", mimeType)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{"image": stored})
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	id := imageIDParam(r)

	s.mu.RLock()
	rec, ok := s.images[id]
	var blobKey, mimeType string
	if ok {
		blobKey, mimeType = rec.blobKey, rec.MimeType
	}
	s.mu.RUnlock()
	if !ok || mimeType == "" {
		http.NotFound(w, r)
		return
	}

	rc, err := s.opts.Store.Get(r.Context(), blobKey)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", mimeType)
	_, _ = io.Copy(w, rc)
}

// imageIDParam returns the unescaped {id} route parameter. chi matches against the
// escaped path whenever the request carries one.
func imageIDParam(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

// authorize verifies the timestamp and signature, rendering 401 on failure
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, params signature.Params, sig string) bool {
	ts, err := strconv.ParseInt(params[resizor.ParamTimestamp], 10, 64)
	if err != nil {
		renderErrors(w, r, http.StatusUnauthorized, "timestamp is required")
		return false
	}
	if s.opts.MaxSkew > 0 {
		skew := s.opts.Now().Sub(time.Unix(ts, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > s.opts.MaxSkew {
			renderErrors(w, r, http.StatusUnauthorized, "timestamp is too old")
			return false
		}
	}

	if err := s.signer.Verify(params, sig); err != nil {
		s.opts.Logger.Warn("Rejected request", "path", r.URL.Path, "err", err)
		renderErrors(w, r, http.StatusUnauthorized, "invalid signature")
		return false
	}
	return true
}

func renderErrors(w http.ResponseWriter, r *http.Request, status int, messages ...string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"errors": messages})
}
