package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"medical-decision/backend/internal/circuit"
	"medical-decision/backend/internal/dataset"
	"medical-decision/backend/internal/scoring"
	"medical-decision/backend/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	SilentDB       bool
	DisableHistory bool
	Mode           string
	Shots          int
	Seed           uint64
	AllowedOrigins []string
}

// Server wires HTTP handlers with persistence and the decision engine.
type Server struct {
	db             *store.Database
	engine         dataset.Decider
	notifier       *DecisionNotifier
	allowedOrigins []string
	shots          int
}

var errHistoryDisabled = errors.New("decision history is disabled")

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	estimator, err := circuit.NewEstimator(cfg.Mode, cfg.Shots, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}

	server := &Server{
		engine:         scoring.NewEngine(estimator),
		notifier:       NewDecisionNotifier(),
		allowedOrigins: cfg.AllowedOrigins,
	}
	if estimator.Mode() == circuit.ModeSampled {
		server.shots = cfg.Shots
	}

	if cfg.DisableHistory {
		logrus.Info("decision history disabled via configuration")
	} else {
		if cfg.DBPath == "" {
			return nil, errors.New("db path required")
		}
		db, err := store.Open(cfg.DBPath, cfg.SilentDB)
		if err != nil {
			return nil, err
		}
		server.db = db
	}

	logrus.WithFields(logrus.Fields{
		"mode":    server.engine.Mode(),
		"shots":   server.shots,
		"history": server.db != nil,
	}).Info("decision engine ready")
	return server, nil
}

// Close releases the database handle, if any.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.POST("/decide", s.handleDecide)
	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/decide", s.handleDecide)
		api.POST("/upload", s.handleUpload)
		api.GET("/datasets", s.handleListDatasets)
		api.GET("/datasets/:id", s.handleGetDataset)
		api.GET("/datasets/:id/summary", s.handleDatasetSummary)
		api.GET("/results", s.handleResults)
		api.GET("/export.csv", s.handleExportCSV)
		api.GET("/export.json", s.handleExportJSON)
		api.GET("/decisions/stream", s.handleDecisionStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "stream_clients": s.notifier.Clients()})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mode":    s.engine.Mode(),
		"shots":   s.shots,
		"history": s.db != nil,
		"labels": []string{
			scoring.DecisionDoNotTreat,
			scoring.DecisionRequestExams,
			scoring.DecisionTreat,
		},
	})
}

func (s *Server) handleDecisionStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("decision websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("decision websocket closed")
			} else {
				logrus.WithError(err).Warn("decision websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// requireHistory renders 503 when persistence is switched off.
func (s *Server) requireHistory(c *gin.Context) bool {
	if s.db == nil {
		s.renderError(c, http.StatusServiceUnavailable, errHistoryDisabled)
		return false
	}
	return true
}

func pagination(c *gin.Context, defaultSize int) (offset, limit int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	return page * pageSize, pageSize
}

func parseUintParam(value string) (uint, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("identifier is required")
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier: %w", err)
	}
	if parsed == 0 {
		return 0, errors.New("identifier must be greater than zero")
	}
	return uint(parsed), nil
}

// datasetQuery reads the optional dataset_id/datasetId query parameter.
func datasetQuery(c *gin.Context) (uint, error) {
	value := firstNonEmpty(c.Query("dataset_id"), c.Query("datasetId"))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid dataset_id: %s", value)
	}
	return uint(parsed), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
