// Package api exposes the CAS engine's store/restore/verify/delete
// operations over HTTP. Routes are keyed by tree OID (the handle a caller
// gets back from a successful store) rather than an S3-style bucket/key
// pair.
package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/kenneth/git-cas/internal/cas/engine"
	"github.com/kenneth/git-cas/internal/metrics"
	"github.com/kenneth/git-cas/internal/telemetry"
)

// Handler handles HTTP requests against a CAS Engine.
type Handler struct {
	engine  *engine.Engine
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a new API handler.
func NewHandler(eng *engine.Engine, logger *logrus.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		engine:  eng,
		logger:  logger,
		metrics: m,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/ready", h.handleReady).Methods("GET")
	r.HandleFunc("/live", h.handleLive).Methods("GET")

	assets := r.PathPrefix("/assets").Subrouter()
	assets.HandleFunc("/{slug}", h.handleStore).Methods("PUT")
	assets.HandleFunc("/{treeOID}", h.handleRestore).Methods("GET")
	assets.HandleFunc("/{treeOID}", h.handleDelete).Methods("DELETE")
	assets.HandleFunc("/{treeOID}/verify", h.handleVerify).Methods("POST")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handler := metrics.HealthHandler()
	handler(w, r)
	h.metrics.RecordHTTPRequest(r.Context(), "GET", "/health", http.StatusOK, time.Since(start), 0)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handler := metrics.ReadinessHandler(nil)
	handler(w, r)
	h.metrics.RecordHTTPRequest(r.Context(), "GET", "/ready", http.StatusOK, time.Since(start), 0)
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handler := metrics.LivenessHandler()
	handler(w, r)
	h.metrics.RecordHTTPRequest(r.Context(), "GET", "/live", http.StatusOK, time.Since(start), 0)
}

// storeResponse is what handleStore returns: the tree OID the caller needs
// to restore, verify, or delete the asset later, plus a summary of the
// stored manifest. No key material is ever included.
type storeResponse struct {
	TreeOID    string `json:"tree_oid"`
	Slug       string `json:"slug"`
	Size       int64  `json:"size"`
	ChunkCount int    `json:"chunk_count"`
	Encrypted  bool   `json:"encrypted"`
}

// handleStore reads the request body, chunks/encrypts/compresses it per
// query parameters, and persists the resulting manifest and chunk tree.
func (h *Handler) handleStore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	vars := mux.Vars(r)
	slug := vars["slug"]

	if slug == "" {
		http.Error(w, "missing slug", http.StatusBadRequest)
		h.metrics.RecordHTTPRequest(r.Context(), "PUT", r.URL.Path, http.StatusBadRequest, time.Since(start), 0)
		return
	}

	ctx, span := telemetry.StartOperation(r.Context(), "store", slug, "")
	defer span.End()
	in := engine.StoreInput{
		Source:   r.Body,
		Slug:     slug,
		Filename: r.URL.Query().Get("filename"),
		Compress: r.URL.Query().Get("compress") == "true",
	}
	if passphrase := r.Header.Get("X-CAS-Passphrase"); passphrase != "" {
		in.Passphrase = passphrase
	} else if keyHex := r.Header.Get("X-CAS-Key"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			http.Error(w, "invalid X-CAS-Key: not hex", http.StatusBadRequest)
			h.metrics.RecordHTTPRequest(ctx, "PUT", r.URL.Path, http.StatusBadRequest, time.Since(start), 0)
			return
		}
		in.EncryptionKey = key
	}

	manifest, err := h.engine.Store(ctx, in)
	if err != nil {
		h.logger.WithError(err).WithField("slug", slug).Error("store failed")
		h.metrics.RecordEngineError(ctx, "store", slug, "store_failed")
		http.Error(w, "failed to store asset", http.StatusInternalServerError)
		h.metrics.RecordHTTPRequest(ctx, "PUT", r.URL.Path, http.StatusInternalServerError, time.Since(start), 0)
		return
	}

	treeOID, err := h.engine.CreateTree(ctx, manifest)
	if err != nil {
		h.logger.WithError(err).WithField("slug", slug).Error("createTree failed")
		h.metrics.RecordEngineError(ctx, "store", slug, "create_tree_failed")
		http.Error(w, "failed to persist manifest tree", http.StatusInternalServerError)
		h.metrics.RecordHTTPRequest(ctx, "PUT", r.URL.Path, http.StatusInternalServerError, time.Since(start), 0)
		return
	}

	h.metrics.RecordChunksWritten(manifest.ChunkCount())
	resp := storeResponse{
		TreeOID:    treeOID,
		Slug:       manifest.Slug(),
		Size:       manifest.Size(),
		ChunkCount: manifest.ChunkCount(),
		Encrypted:  manifest.Encryption() != nil,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)

	h.metrics.RecordEngineOperation(ctx, "store", slug, time.Since(start))
	h.metrics.RecordHTTPRequest(ctx, "PUT", r.URL.Path, http.StatusCreated, time.Since(start), manifest.Size())
}

// handleRestore reads the manifest at treeOID, reassembles the original
// bytes, and streams them back.
func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	vars := mux.Vars(r)
	treeOID := vars["treeOID"]

	if treeOID == "" {
		http.Error(w, "missing tree OID", http.StatusBadRequest)
		h.metrics.RecordHTTPRequest(r.Context(), "GET", r.URL.Path, http.StatusBadRequest, time.Since(start), 0)
		return
	}

	ctx, span := telemetry.StartOperation(r.Context(), "restore", "", treeOID)
	defer span.End()
	manifest, err := h.engine.ReadManifest(ctx, treeOID)
	if err != nil {
		h.logger.WithError(err).WithField("tree_oid", treeOID).Error("readManifest failed")
		h.metrics.RecordEngineError(ctx, "restore", "", "manifest_not_found")
		http.Error(w, "manifest not found", http.StatusNotFound)
		h.metrics.RecordHTTPRequest(ctx, "GET", r.URL.Path, http.StatusNotFound, time.Since(start), 0)
		return
	}

	in := engine.RestoreInput{Manifest: manifest}
	if passphrase := r.Header.Get("X-CAS-Passphrase"); passphrase != "" {
		in.Passphrase = passphrase
	} else if keyHex := r.Header.Get("X-CAS-Key"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			http.Error(w, "invalid X-CAS-Key: not hex", http.StatusBadRequest)
			h.metrics.RecordHTTPRequest(ctx, "GET", r.URL.Path, http.StatusBadRequest, time.Since(start), 0)
			return
		}
		in.EncryptionKey = key
	}

	result, err := h.engine.Restore(ctx, in)
	if err != nil {
		h.logger.WithError(err).WithField("tree_oid", treeOID).Error("restore failed")
		h.metrics.RecordEngineError(ctx, "restore", manifest.Slug(), "restore_failed")
		http.Error(w, "failed to restore asset", http.StatusInternalServerError)
		h.metrics.RecordHTTPRequest(ctx, "GET", r.URL.Path, http.StatusInternalServerError, time.Since(start), 0)
		return
	}

	h.metrics.RecordChunksRestored(manifest.ChunkCount())
	w.Header().Set("Content-Type", "application/octet-stream")
	if manifest.Filename() != "" {
		w.Header().Set("Content-Disposition", "attachment; filename=\""+manifest.Filename()+"\"")
	}
	w.WriteHeader(http.StatusOK)
	n, err := io.Copy(w, bytes.NewReader(result.Buffer))
	if err != nil {
		h.logger.WithError(err).Error("failed to write restore response")
		h.metrics.RecordHTTPRequest(ctx, "GET", r.URL.Path, http.StatusInternalServerError, time.Since(start), n)
		return
	}

	h.metrics.RecordEngineOperation(ctx, "restore", manifest.Slug(), time.Since(start))
	h.metrics.RecordHTTPRequest(ctx, "GET", r.URL.Path, http.StatusOK, time.Since(start), n)
}

// handleDelete reports how many chunks would become orphaned by removing
// treeOID, without performing any destructive operation.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	vars := mux.Vars(r)
	treeOID := vars["treeOID"]

	if treeOID == "" {
		http.Error(w, "missing tree OID", http.StatusBadRequest)
		h.metrics.RecordHTTPRequest(r.Context(), "DELETE", r.URL.Path, http.StatusBadRequest, time.Since(start), 0)
		return
	}

	ctx, span := telemetry.StartOperation(r.Context(), "delete", "", treeOID)
	defer span.End()
	result, err := h.engine.DeleteAsset(ctx, treeOID)
	if err != nil {
		h.logger.WithError(err).WithField("tree_oid", treeOID).Error("deleteAsset failed")
		h.metrics.RecordEngineError(ctx, "delete", "", "delete_failed")
		http.Error(w, "failed to evaluate delete", http.StatusInternalServerError)
		h.metrics.RecordHTTPRequest(ctx, "DELETE", r.URL.Path, http.StatusInternalServerError, time.Since(start), 0)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)

	h.metrics.RecordEngineOperation(ctx, "delete", result.Slug, time.Since(start))
	h.metrics.RecordHTTPRequest(ctx, "DELETE", r.URL.Path, http.StatusOK, time.Since(start), 0)
}

// handleVerify re-digests every chunk referenced by treeOID's manifest.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	vars := mux.Vars(r)
	treeOID := vars["treeOID"]

	ctx, span := telemetry.StartOperation(r.Context(), "verify", "", treeOID)
	defer span.End()
	manifest, err := h.engine.ReadManifest(ctx, treeOID)
	if err != nil {
		h.logger.WithError(err).WithField("tree_oid", treeOID).Error("readManifest failed")
		http.Error(w, "manifest not found", http.StatusNotFound)
		h.metrics.RecordHTTPRequest(ctx, "POST", r.URL.Path, http.StatusNotFound, time.Since(start), 0)
		return
	}

	ok, err := h.engine.VerifyIntegrity(ctx, manifest)
	if err != nil {
		h.logger.WithError(err).WithField("tree_oid", treeOID).Error("verifyIntegrity failed")
		h.metrics.RecordEngineError(ctx, "verify", manifest.Slug(), "verify_failed")
		http.Error(w, "failed to verify asset", http.StatusInternalServerError)
		h.metrics.RecordHTTPRequest(ctx, "POST", r.URL.Path, http.StatusInternalServerError, time.Since(start), 0)
		return
	}
	if !ok {
		h.metrics.RecordIntegrityFailure(manifest.Slug())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"valid": ok})

	h.metrics.RecordEngineOperation(ctx, "verify", manifest.Slug(), time.Since(start))
	h.metrics.RecordHTTPRequest(ctx, "POST", r.URL.Path, http.StatusOK, time.Since(start), 0)
}
