package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appeval "github.com/bryanwahyu/licitai/internal/application/evaluation"
	apptenders "github.com/bryanwahyu/licitai/internal/application/tenders"
	domai "github.com/bryanwahyu/licitai/internal/domain/ai"
	domtenders "github.com/bryanwahyu/licitai/internal/domain/tenders"
	"github.com/bryanwahyu/licitai/internal/middleware"
)

const maxUploadBytes = 32 << 20

type Router struct {
	tendersSvc *apptenders.Service
	evalSvc    *appeval.Service
	logger     *slog.Logger
}

func NewRouter(tendersSvc *apptenders.Service, evalSvc *appeval.Service, logger *slog.Logger, apiKeys []string, checks ...middleware.HealthCheck) http.Handler {
	r := &Router{tendersSvc: tendersSvc, evalSvc: evalSvc, logger: logger}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	mux.Use(middleware.RequestLogger(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(100, 50))
	mux.Use(middleware.APIKeyAuth(apiKeys))

	mux.Get("/health", middleware.Health(checks...))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/licitaciones", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleCreateTender))
		rt.Get("/", r.wrap(r.handleListTenders))
		rt.Get("/{id}", r.wrap(r.handleGetTender))
		rt.Post("/{id}/documentos", r.wrap(r.handleUploadDocument))
		rt.Post("/{id}/indexar", r.wrap(r.handleReindex))
		rt.Post("/{id}/analizar", r.wrap(r.handleAnalyze))
		rt.Get("/{id}/resumen", r.wrap(r.handleResumen))
		rt.Get("/{id}/reportes", r.wrap(r.handleHistorial))
		rt.Post("/{id}/chat", r.wrap(r.handleChat))
		rt.Get("/{id}/hallazgos", r.wrap(r.handleHallazgos))
		rt.Get("/{id}/validaciones/ruc", r.wrap(r.handleValidacionesRUC))
		rt.Get("/{id}/comparativo", r.wrap(r.handleComparativo))
	})

	mux.Post("/v1/corpus/legal", r.wrap(r.handleUploadLegal))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, apptenders.ErrNotFound),
				errors.Is(err, appeval.ErrTenderNotFound),
				errors.Is(err, appeval.ErrNoReport):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, apptenders.ErrUnsupportedFile),
				errors.Is(err, appeval.ErrNoDocuments):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/licitaciones
func (r *Router) handleCreateTender(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Nombre      string   `json:"nombre"`
		Objeto      string   `json:"objeto"`
		Presupuesto float64  `json:"presupuesto"`
		PesoLegal   float64  `json:"peso_legal"`
		PesoTecnico float64  `json:"peso_tecnico"`
		PesoEcon    float64  `json:"peso_economico"`
		Normativa   []string `json:"normativa"`
		Deadline    string   `json:"deadline"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.Nombre == "" {
		return fmt.Errorf("nombre is required")
	}

	cmd := apptenders.CreateTenderCommand{
		Nombre:      body.Nombre,
		Objeto:      body.Objeto,
		Presupuesto: body.Presupuesto,
		Normativa:   body.Normativa,
		Deadline:    body.Deadline,
	}
	cmd.Pesos.Legal = body.PesoLegal
	cmd.Pesos.Tecnico = body.PesoTecnico
	cmd.Pesos.Economico = body.PesoEcon
	if err := middleware.ValidateWeights(cmd.Pesos.Legal, cmd.Pesos.Tecnico, cmd.Pesos.Economico); err != nil {
		return err
	}

	t, err := r.tendersSvc.Create(req.Context(), cmd)
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return writeJSON(w, t)
}

// GET /v1/licitaciones?limit=50
func (r *Router) handleListTenders(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.tendersSvc.List(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domtenders.Tender{}
	}
	return writeJSON(w, list)
}

// GET /v1/licitaciones/{id}
func (r *Router) handleGetTender(w http.ResponseWriter, req *http.Request) error {
	t, err := r.tendersSvc.Get(req.Context(), domtenders.TenderID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, t)
}

// POST /v1/licitaciones/{id}/documentos  (multipart: file, tipo=pliego|propuesta)
func (r *Router) handleUploadDocument(w http.ResponseWriter, req *http.Request) error {
	id := domtenders.TenderID(chi.URLParam(req, "id"))
	filename, data, err := readUpload(req)
	if err != nil {
		return err
	}
	doc, err := r.tendersSvc.AddDocument(req.Context(), id, filename,
		req.FormValue("tipo"), data, req.FormValue("indexar") != "false")
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return writeJSON(w, doc)
}

// POST /v1/corpus/legal  (multipart: file)
func (r *Router) handleUploadLegal(w http.ResponseWriter, req *http.Request) error {
	filename, data, err := readUpload(req)
	if err != nil {
		return err
	}
	if err := r.tendersSvc.AddLegalDocument(req.Context(), filename, data); err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"status": "indexed", "file": filename})
}

// POST /v1/licitaciones/{id}/indexar
func (r *Router) handleReindex(w http.ResponseWriter, req *http.Request) error {
	id := domtenders.TenderID(chi.URLParam(req, "id"))
	if err := r.tendersSvc.Reindex(req.Context(), id); err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"status": "indexed", "id": id})
}

// POST /v1/licitaciones/{id}/analizar
// The analysis runs in the background; poll /resumen for the outcome.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id := domtenders.TenderID(chi.URLParam(req, "id"))

	// fail fast on unknown tenders before queueing anything
	if _, err := r.tendersSvc.Get(req.Context(), id); err != nil {
		return err
	}

	go func() {
		middleware.IncrementAnalyses()
		middleware.IncrementAnalysesRunning()
		defer middleware.DecrementAnalysesRunning()

		rep, err := r.evalSvc.AnalyzeUntilDone(id)
		if err != nil {
			middleware.IncrementAnalysesFailed()
			r.logger.Error("background analysis failed", "tender", id, "error", err)
			return
		}
		r.logger.Info("analysis finished", "tender", id, "report", rep.ID,
			"rojas", rep.Summary.Rojas, "amarillas", rep.Summary.Amarillas)
	}()

	w.WriteHeader(http.StatusAccepted)
	return writeJSON(w, map[string]any{
		"status":   "queued",
		"id":       id,
		"message":  "análisis iniciado en segundo plano",
		"queuedAt": time.Now(),
	})
}

// GET /v1/licitaciones/{id}/resumen
func (r *Router) handleResumen(w http.ResponseWriter, req *http.Request) error {
	v, err := r.evalSvc.Resumen(req.Context(), domtenders.TenderID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, v)
}

// GET /v1/licitaciones/{id}/reportes?page=1&page_size=20
func (r *Router) handleHistorial(w http.ResponseWriter, req *http.Request) error {
	id := domtenders.TenderID(chi.URLParam(req, "id"))
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	v, err := r.evalSvc.Historial(req.Context(), id, page, middleware.ValidateLimit(pageSize))
	if err != nil {
		return err
	}
	return writeJSON(w, v)
}

// POST /v1/licitaciones/{id}/chat  {"message": "..."}
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.Message == "" {
		return fmt.Errorf("message is required")
	}
	answer, err := r.evalSvc.Chat(req.Context(), domtenders.TenderID(chi.URLParam(req, "id")), body.Message)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]string{"answer": answer})
}

// GET /v1/licitaciones/{id}/hallazgos
func (r *Router) handleHallazgos(w http.ResponseWriter, req *http.Request) error {
	v, err := r.evalSvc.Hallazgos(req.Context(), domtenders.TenderID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	if v == nil {
		v = []appeval.IssueView{}
	}
	return writeJSON(w, v)
}

// GET /v1/licitaciones/{id}/validaciones/ruc
func (r *Router) handleValidacionesRUC(w http.ResponseWriter, req *http.Request) error {
	v, err := r.evalSvc.ValidacionesRUC(req.Context(), domtenders.TenderID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	if v == nil {
		v = []appeval.RUCView{}
	}
	return writeJSON(w, v)
}

// GET /v1/licitaciones/{id}/comparativo
func (r *Router) handleComparativo(w http.ResponseWriter, req *http.Request) error {
	v, err := r.evalSvc.Comparativo(req.Context(), domtenders.TenderID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, v)
}

func readUpload(req *http.Request) (string, []byte, error) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, fmt.Errorf("parse upload: %w", err)
	}
	f, header, err := req.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("file field is required: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return "", nil, err
	}
	return middleware.SanitizeFilename(header.Filename), data, nil
}
