package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/minhtam/ordersight/internal/config"
	"github.com/minhtam/ordersight/internal/database"
	"github.com/minhtam/ordersight/internal/ingest"
	"github.com/minhtam/ordersight/internal/kpi"
	"github.com/minhtam/ordersight/internal/loader"
	"github.com/minhtam/ordersight/internal/models"
	"github.com/minhtam/ordersight/internal/report"
	"github.com/minhtam/ordersight/internal/warehouse"
)

type Server struct {
	router *gin.Engine
	cfg    *config.Config
	db     *database.DB
	store  *ingest.Store

	mu       sync.RWMutex
	analyzer *kpi.Analyzer
}

// NewServer creates a new server instance. db may be nil, in which case the
// pipeline runs purely off the CSV snapshots.
func NewServer(cfg *config.Config, db *database.DB) *Server {
	router := gin.Default()

	server := &Server{
		router: router,
		cfg:    cfg,
		db:     db,
	}
	if db != nil {
		server.store = ingest.NewStore(db)
	}

	server.rebuild()
	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)
		api.GET("/metrics", s.getMetrics)
		api.GET("/revenue/daily", s.getDailyRevenue)
		api.GET("/channels/distribution", s.getChannelDist)
		api.GET("/orders", s.getOrders)
		api.GET("/report", s.exportReport)
		api.GET("/imports", s.getImportHistory)
		api.POST("/upload/:source", s.uploadSource)
		api.POST("/refresh", s.refresh)
	}
}

// rebuild reconstructs the reconciled snapshot in full, from the database
// copy when one is configured and from the CSV snapshots otherwise. The old
// snapshot keeps serving readers until the swap.
func (s *Server) rebuild() {
	var lines []models.OrderLine

	if s.store != nil {
		orders, err := s.store.FetchOrders()
		if err != nil {
			logrus.Errorf("failed to fetch orders from database: %v", err)
		}
		items, err := s.store.FetchItems()
		if err != nil {
			logrus.Errorf("failed to fetch items from database: %v", err)
		}
		channels, err := s.store.FetchChannels()
		if err != nil {
			logrus.Errorf("failed to fetch channels from database: %v", err)
		}
		lines = warehouse.Reconcile(orders, nil, items, channels)
	} else {
		lines = warehouse.BuildFromFiles(&s.cfg.Data)
	}

	s.mu.Lock()
	s.analyzer = kpi.NewAnalyzer(lines)
	s.mu.Unlock()
}

// filtered resolves the channel/date query parameters into an independent
// filtered view. Missing or half-open date parameters mean no date filter.
func (s *Server) filtered(c *gin.Context) *kpi.Analyzer {
	channel := c.DefaultQuery("channel", kpi.ChannelAll)

	var dateRange []time.Time
	from, errFrom := time.Parse("2006-01-02", c.Query("from"))
	to, errTo := time.Parse("2006-01-02", c.Query("to"))
	if errFrom == nil && errTo == nil {
		dateRange = []time.Time{from, to}
	}

	s.mu.RLock()
	analyzer := s.analyzer
	s.mu.RUnlock()

	return analyzer.Filter(channel, dateRange)
}

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	mode := "csv"
	if s.db != nil {
		mode = "mysql"
		if err := s.db.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"error":  "database connection failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ordersight",
		"mode":    mode,
	})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.filtered(c).Metrics())
}

func (s *Server) getDailyRevenue(c *gin.Context) {
	c.JSON(http.StatusOK, s.filtered(c).DailyRevenue())
}

func (s *Server) getChannelDist(c *gin.Context) {
	c.JSON(http.StatusOK, s.filtered(c).ChannelDist())
}

func (s *Server) getOrders(c *gin.Context) {
	c.JSON(http.StatusOK, s.filtered(c).Rows())
}

// exportReport streams the XLSX summary workbook for the filtered view.
func (s *Server) exportReport(c *gin.Context) {
	analyzer := s.filtered(c)

	var buf bytes.Buffer
	err := report.WriteSummary(&buf, analyzer.Metrics(), analyzer.DailyRevenue(), analyzer.ChannelDist(), analyzer.Rows())
	if err != nil {
		logrus.Errorf("failed to build report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=orders_report.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) getImportHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
		return
	}

	history, err := s.store.ImportHistory(50)
	if err != nil {
		logrus.Errorf("failed to read import history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read import history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// uploadSource accepts a refreshed CSV snapshot for one of the four sources,
// persists it (rotating the previous file to a backup), mirrors it into the
// database when one is configured, and rebuilds the snapshot. An upload that
// fails to parse is rejected without touching the current data; one that
// parses but carries invalid values is reported and the snapshot keeps
// serving until the next successful refresh.
func (s *Server) uploadSource(c *gin.Context) {
	source := c.Param("source")
	path, label, ok := s.sourceTarget(source)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown source %q", source)})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	table := loader.Load(data, path, label)
	if table.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("could not parse %s upload", label)})
		return
	}

	rows, err := s.importUpload(source, table, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.rebuild()
	c.JSON(http.StatusOK, gin.H{"source": source, "rows": rows})
}

// importUpload decodes the uploaded table and, when a database is configured,
// mirrors it into the matching source table.
func (s *Server) importUpload(source string, table loader.Table, fileName string) (int, error) {
	switch source {
	case "web", "app":
		orders, err := loader.DecodeOrders(table)
		if err != nil {
			return 0, fmt.Errorf("invalid orders upload: %w", err)
		}
		if s.store != nil {
			return s.store.ImportOrders(orders, fileName)
		}
		return len(orders), nil
	case "items":
		items, err := loader.DecodeItems(table)
		if err != nil {
			return 0, fmt.Errorf("invalid items upload: %w", err)
		}
		if s.store != nil {
			return s.store.ImportItems(items, fileName)
		}
		return len(items), nil
	case "channels":
		channels, err := loader.DecodeChannels(table)
		if err != nil {
			return 0, fmt.Errorf("invalid channels upload: %w", err)
		}
		if s.store != nil {
			return s.store.ImportChannels(channels, fileName)
		}
		return len(channels), nil
	}
	return 0, fmt.Errorf("unknown source %q", source)
}

func (s *Server) sourceTarget(source string) (path, label string, ok bool) {
	switch source {
	case "web":
		return s.cfg.Data.WebOrdersPath(), "web orders", true
	case "app":
		return s.cfg.Data.AppOrdersPath(), "app orders", true
	case "items":
		return s.cfg.Data.ItemsPath(), "items", true
	case "channels":
		return s.cfg.Data.ChannelsPath(), "channels", true
	}
	return "", "", false
}

func (s *Server) refresh(c *gin.Context) {
	s.rebuild()

	s.mu.RLock()
	rows := len(s.analyzer.Rows())
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{"status": "refreshed", "rows": rows})
}

// Router exposes the handler, used by tests and embedding hosts.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
