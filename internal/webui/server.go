// Package webui serves scan output directories over HTTP: the scan
// report, per-class summaries and disassembly, and the class reference
// graph, plus a small embedded browsing page.
//
// The data directory is either one scan's output directory or a
// directory of them. Artifact names follow the scanner's layout, so a
// directory written by a scan can be served without rearrangement.
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/class-inspect/pkg/compression"
	apperrors "github.com/class-inspect/pkg/errors"
	"github.com/class-inspect/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Artifact names under a scan directory, matching what the scanner
// writes.
const (
	reportName     = "report.json"
	refGraphName   = "refgraph.json.gz"
	classesDirName = "classes"
)

// Server serves scan artifacts and the browsing UI.
type Server struct {
	dataDir   string
	port      int
	logger    utils.Logger
	server    *http.Server
	refGraphs *RefGraphService
}

// NewServer creates a web UI server over a data directory.
func NewServer(dataDir string, port int, logger utils.Logger) *Server {
	return &Server{
		dataDir:   dataDir,
		port:      port,
		logger:    logger,
		refGraphs: NewRefGraphService(dataDir),
	}
}

// Start starts the web server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Static file server (CSS, JS)
	// Use fs.Sub to strip the "static" prefix from the embedded filesystem
	staticSubFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to create static sub-filesystem: %w", err)
	}
	staticHandler := http.FileServer(http.FS(staticSubFS))
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler))

	// API routes
	mux.HandleFunc("/api/scans", s.handleListScans)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/classes", s.handleListClasses)
	mux.HandleFunc("/api/class", s.handleClass)
	mux.HandleFunc("/api/disassembly", s.handleDisassembly)
	mux.HandleFunc("/api/refgraph", s.handleRefGraph)
	mux.HandleFunc("/api/refgraph/stats", s.handleRefGraphStats)
	mux.HandleFunc("/api/refgraph/class", s.handleClassReferences)

	// Page routes
	mux.HandleFunc("/", s.handleIndex)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting web server at http://localhost:%d", s.port)
	s.logger.Info("Serving scans from: %s", s.dataDir)
	s.logger.Info("Press Ctrl+C to stop")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleIndex serves the main HTML page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		http.Error(w, "Template error", http.StatusInternalServerError)
		s.logger.Error("Failed to parse template: %v", err)
		return
	}

	data := map[string]interface{}{
		"DataDir": s.dataDir,
		"Port":    s.port,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("Failed to execute template: %v", err)
	}
}

// ScanInfo describes one scan directory in a listing.
type ScanInfo struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	HasReport bool   `json:"has_report"`
}

// handleListScans lists all available scans, newest first.
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	scans := []ScanInfo{}

	// A report at the top level means the data directory holds a single
	// scan rather than a collection of them.
	if info, err := os.Stat(filepath.Join(s.dataDir, reportName)); err == nil {
		scans = append(scans, ScanInfo{
			ID:        "",
			CreatedAt: info.ModTime().Format(time.RFC3339),
			HasReport: true,
		})
	} else {
		entries, err := os.ReadDir(s.dataDir)
		if err != nil {
			http.Error(w, "Failed to list scans", http.StatusInternalServerError)
			return
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			info, _ := entry.Info()
			createdAt := ""
			if info != nil {
				createdAt = info.ModTime().Format(time.RFC3339)
			}

			_, hasReport := os.Stat(filepath.Join(s.dataDir, entry.Name(), reportName))
			scans = append(scans, ScanInfo{
				ID:        entry.Name(),
				CreatedAt: createdAt,
				HasReport: hasReport == nil,
			})
		}

		// Sort by creation time (newest first)
		sort.Slice(scans, func(i, j int) bool {
			return scans[i].CreatedAt > scans[j].CreatedAt
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(scans)
}

// handleReport returns the scan report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	dir, ok := s.resolveScanDir(r)
	if !ok {
		http.Error(w, "Invalid scan ID", http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(filepath.Join(dir, reportName))
	if err != nil {
		http.Error(w, "Scan report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}

// handleListClasses lists the class names that have summary artifacts
// in a scan, sorted by name.
func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	dir, ok := s.resolveScanDir(r)
	if !ok {
		http.Error(w, "Invalid scan ID", http.StatusBadRequest)
		return
	}

	classesRoot := filepath.Join(dir, classesDirName)
	var classes []string
	err := filepath.WalkDir(classesRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		rel, err := filepath.Rel(classesRoot, p)
		if err != nil {
			return err
		}
		classes = append(classes, strings.TrimSuffix(filepath.ToSlash(rel), ".json"))
		return nil
	})
	if err != nil {
		http.Error(w, "Scan has no class summaries", http.StatusNotFound)
		return
	}

	sort.Strings(classes)
	if classes == nil {
		classes = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(classes)
}

// handleClass returns one class summary document
func (s *Server) handleClass(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing class name", http.StatusBadRequest)
		return
	}

	dir, ok := s.resolveScanDir(r)
	if !ok {
		http.Error(w, "Invalid scan ID", http.StatusBadRequest)
		return
	}

	file, ok := classArtifactPath(dir, name, ".json")
	if !ok {
		http.Error(w, "Invalid class name", http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(file)
	if err != nil {
		http.Error(w, "Class summary not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}

// handleDisassembly returns the disassembly text for one class. The
// scanner writes it plain or compressed depending on its settings, so
// all three artifact extensions are tried.
func (s *Server) handleDisassembly(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing class name", http.StatusBadRequest)
		return
	}

	dir, ok := s.resolveScanDir(r)
	if !ok {
		http.Error(w, "Invalid scan ID", http.StatusBadRequest)
		return
	}

	base, ok := classArtifactPath(dir, name, ".txt")
	if !ok {
		http.Error(w, "Invalid class name", http.StatusBadRequest)
		return
	}

	for _, ext := range []string{"", ".zst", ".gz"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			continue
		}
		if ext != "" {
			data, err = compression.AutoDecompress(data)
			if err != nil {
				http.Error(w, "Failed to decompress disassembly", http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Write(data)
		return
	}

	http.Error(w, "Disassembly not found", http.StatusNotFound)
}

// handleRefGraph returns the full reference graph as JSON
func (s *Server) handleRefGraph(w http.ResponseWriter, r *http.Request) {
	dir, ok := s.resolveScanDir(r)
	if !ok {
		http.Error(w, "Invalid scan ID", http.StatusBadRequest)
		return
	}

	raw, err := os.ReadFile(filepath.Join(dir, refGraphName))
	if err != nil {
		http.Error(w, "Reference graph not found", http.StatusNotFound)
		return
	}

	data, err := compression.AutoDecompress(raw)
	if err != nil {
		http.Error(w, "Failed to decompress reference graph", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}

// handleRefGraphStats returns node and edge counts for the reference
// graph, served from the parsed-graph cache.
func (s *Server) handleRefGraphStats(w http.ResponseWriter, r *http.Request) {
	scanID, ok := s.resolveScanID(r)
	if !ok {
		http.Error(w, "Invalid scan ID", http.StatusBadRequest)
		return
	}

	stats, err := s.refGraphs.GraphStats(scanID)
	if err != nil {
		s.apiError(w, "Failed to load reference graph", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(stats)
}

// handleClassReferences returns one graph node with its incoming and
// outgoing edges: what the class references and what references it.
func (s *Server) handleClassReferences(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing class name", http.StatusBadRequest)
		return
	}

	scanID, ok := s.resolveScanID(r)
	if !ok {
		http.Error(w, "Invalid scan ID", http.StatusBadRequest)
		return
	}

	refs, err := s.refGraphs.ClassReferences(scanID, name)
	if err != nil {
		s.apiError(w, "Failed to load class references", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(refs)
}

// apiError maps a classified failure onto its HTTP status: a missing
// artifact answers 404 with the classified message, anything else is
// logged and answers 500 with the fallback text.
func (s *Server) apiError(w http.ResponseWriter, fallback string, err error) {
	if apperrors.IsNotFound(err) {
		http.Error(w, apperrors.MessageOf(err), http.StatusNotFound)
		return
	}
	s.logger.Error("%s: %v", fallback, err)
	http.Error(w, fallback, http.StatusInternalServerError)
}

// resolveScanID reads the scan query parameter, falling back to the
// default scan. Separators are rejected so the ID stays one directory
// level below the data directory.
func (s *Server) resolveScanID(r *http.Request) (string, bool) {
	scanID := r.URL.Query().Get("scan")
	if scanID == "" {
		return s.getDefaultScan(), true
	}
	if scanID == ".." || strings.ContainsAny(scanID, `/\`) {
		return "", false
	}
	return scanID, true
}

// resolveScanDir resolves the request's scan to its directory.
func (s *Server) resolveScanDir(r *http.Request) (string, bool) {
	scanID, ok := s.resolveScanID(r)
	if !ok {
		return "", false
	}
	if scanID == "" {
		return s.dataDir, true
	}
	return filepath.Join(s.dataDir, scanID), true
}

// getDefaultScan returns the most recently modified scan directory. An
// empty string means the data directory itself holds the scan, which is
// the layout produced by scanning straight into it.
func (s *Server) getDefaultScan() string {
	if _, err := os.Stat(filepath.Join(s.dataDir, reportName)); err == nil {
		return ""
	}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return ""
	}

	var latest string
	var latestTime time.Time

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dataDir, entry.Name(), reportName)); err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = entry.Name()
		}
	}

	return latest
}

// classArtifactPath maps a binary class name onto its artifact path
// under a scan directory. Cleaning against a rooted path keeps hostile
// names inside the classes directory, matching how the scanner places
// them when writing.
func classArtifactPath(scanDir, className, ext string) (string, bool) {
	cleaned := path.Clean("/" + className)
	if cleaned == "/" {
		return "", false
	}
	return filepath.Join(scanDir, classesDirName, filepath.FromSlash(cleaned[1:])+ext), true
}
