package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/transcode/internal/core"
	"github.com/JonMunkholm/transcode/internal/store"
	"github.com/JonMunkholm/transcode/internal/transcode"
)

const (
	defaultArtifactLimit = 50
	maxArtifactLimit     = 500

	// multipartOverhead is allowed on top of the input limit for form
	// boundaries and part headers.
	multipartOverhead = 1 << 20

	// multipartMemory is held in memory before ParseMultipartForm spills
	// parts to disk.
	multipartMemory = 8 << 20
)

// convertResponse is returned by POST /api/convert/{operation} unless the
// request asked for inline output.
type convertResponse struct {
	ArtifactID  string            `json:"artifact_id"`
	Name        string            `json:"name"`
	Operation   string            `json:"operation"`
	ContentType string            `json:"content_type"`
	Size        int64             `json:"size"`
	DownloadURL string            `json:"download_url"`
	Diagnostics []transcode.Issue `json:"diagnostics"`
}

// clientIP returns the request's remote address without the port.
// TrustedRealIP has already replaced it with the forwarded client when the
// peer is a trusted proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"limiter": s.service.LimiterStatus(),
	})
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Operations())
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	limit := defaultArtifactLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, r, "limit", "must be a positive integer")
			return
		}
		limit = min(n, maxArtifactLimit)
	}

	artifacts, err := s.service.RecentArtifacts(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if artifacts == nil {
		artifacts = []store.Artifact{}
	}
	writeJSON(w, http.StatusOK, artifacts)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	meta, content, err := s.service.Artifact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": meta.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// handleConvert runs one operation. The document is either the "file" field
// of a multipart form or the raw request body.
//
// Query parameters: root, record, separator, indent, sort_keys, inline and,
// for raw bodies, filename.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	opts, bad := parseOptions(r)
	if bad != nil {
		badRequest(w, r, bad.param, bad.reason)
		return
	}
	inline, err := queryBool(r, "inline")
	if err != nil {
		badRequest(w, r, "inline", "must be a boolean")
		return
	}

	body, fileName, cleanup, err := s.documentFromRequest(w, r, "file")
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Convert(ctx, core.ConvertRequest{
		Operation: chi.URLParam(r, "operation"),
		FileName:  fileName,
		Body:      body,
		Options:   opts,
		Inline:    inline,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if res.Artifact == nil {
		w.Header().Set("Content-Type", res.Operation.ContentType)
		w.Header().Set("X-Diagnostics-Count", strconv.Itoa(len(res.Diagnostics)))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, res.Text)
		return
	}

	diags := res.Diagnostics
	if diags == nil {
		diags = []transcode.Issue{}
	}
	writeJSON(w, http.StatusCreated, convertResponse{
		ArtifactID:  res.Artifact.ID,
		Name:        res.Artifact.Name,
		Operation:   res.Artifact.Operation,
		ContentType: res.Artifact.ContentType,
		Size:        res.Artifact.Size,
		DownloadURL: "/api/artifacts/" + res.Artifact.ID,
		Diagnostics: diags,
	})
}

// handleValidate checks a document against an optional schema. A multipart
// request carries "file" and "schema" fields; a raw body has no schema.
// Document problems are part of the report and still answer 200.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, _, cleanup, err := s.documentFromRequest(w, r, "file")
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()

	req := core.ValidateRequest{
		Format:   chi.URLParam(r, "format"),
		Document: body,
	}
	if r.MultipartForm != nil {
		if schema, _, err := r.FormFile("schema"); err == nil {
			defer schema.Close()
			req.Schema = schema
		}
	}

	report, err := s.service.Validate(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if report.Issues == nil {
		report.Issues = []transcode.Issue{}
	}
	writeJSON(w, http.StatusOK, report)
}

// documentFromRequest returns the uploaded document and its file name.
// The caller must call cleanup once the reader is consumed.
func (s *Server) documentFromRequest(w http.ResponseWriter, r *http.Request, field string) (io.Reader, string, func(), error) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if r.Body == nil || r.Body == http.NoBody {
			return nil, "", noop, core.ErrNoInput
		}
		return r.Body, r.URL.Query().Get("filename"), noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Convert.MaxInputSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return nil, "", noop, core.ErrInputTooLarge
		}
		return nil, "", noop, fmt.Errorf("%w: %v", core.ErrNoInput, err)
	}
	cleanupForm := func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile(field)
	if err != nil {
		cleanupForm()
		return nil, "", noop, core.ErrNoInput
	}
	return file, header.Filename, func() {
		file.Close()
		cleanupForm()
	}, nil
}

// paramError names the query parameter that failed to parse.
type paramError struct {
	param  string
	reason string
}

// parseOptions reads the conversion options from the query string. Unset
// parameters stay zero so the service defaults apply.
func parseOptions(r *http.Request) (transcode.Options, *paramError) {
	q := r.URL.Query()
	var opts transcode.Options

	if v := q.Get("root"); v != "" {
		if !transcode.IsXMLName(v) {
			return opts, &paramError{"root", "not a valid element name"}
		}
		opts.RootElementName = v
	}
	if v := q.Get("record"); v != "" {
		if !transcode.IsXMLName(v) {
			return opts, &paramError{"record", "not a valid element name"}
		}
		opts.RecordElementName = v
	}
	opts.FlattenSeparator = q.Get("separator")

	if v := q.Get("indent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < -1 || n > 8 {
			return opts, &paramError{"indent", "must be an integer between -1 and 8"}
		}
		if n == 0 {
			n = -1
		}
		opts.IndentWidth = n
	}

	sortKeys, err := queryBool(r, "sort_keys")
	if err != nil {
		return opts, &paramError{"sort_keys", "must be a boolean"}
	}
	opts.SortKeys = sortKeys

	return opts, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
