package server

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/syssam/faber"
	"github.com/syssam/faber/compiler/gen"
	"github.com/syssam/faber/compiler/load"
)

// routes assembles the gin engine of the server.
func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), corsMiddleware())
	r.GET("/healthz", s.handleHealth)
	api := r.Group("/api/v1")
	{
		api.GET("/targets", s.handleTargets)
		api.GET("/stats", s.handleStats)
		api.POST("/validate", s.handleValidate)
		api.POST("/generate", s.handleGenerate)
	}
	return r
}

// requestLog reports one line per request through the server logger.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// corsMiddleware admits the origins named in FABER_CORS_ORIGINS, or
// every origin when the variable is unset. Config editors run in
// browsers, so the API must answer preflight requests.
func corsMiddleware() gin.HandlerFunc {
	if origins := os.Getenv("FABER_CORS_ORIGINS"); origins != "" {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = strings.Split(origins, ",")
		return cors.New(cfg)
	}
	return cors.Default()
}

func fail(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// targetInfo is one row of the registry listing served to editors.
type targetInfo struct {
	Name       string             `json:"name"`
	Kinds      []gen.ArtifactKind `json:"kinds"`
	Feature    string             `json:"feature,omitempty"`
	Extensions map[string]string  `json:"extensions"`
}

// listTargets renders the target registry once, at construction. The
// artifact extension of each pair comes from naming a probe entity.
func listTargets() ([]targetInfo, error) {
	probe, err := gen.NewType(&gen.Config{}, &load.Entity{Name: "Probe"})
	if err != nil {
		return nil, err
	}
	names := gen.TargetNames()
	infos := make([]targetInfo, 0, len(names))
	for _, name := range names {
		tg, err := gen.NewTarget(name)
		if err != nil {
			return nil, err
		}
		info := targetInfo{
			Name:       name,
			Feature:    tg.Feature,
			Extensions: make(map[string]string, len(tg.Kinds)),
		}
		for _, k := range tg.Kinds {
			info.Kinds = append(info.Kinds, k)
			info.Extensions[string(k)] = path.Ext(tg.File(probe, k))
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *Server) handleTargets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"targets": s.targets})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Stats())
}

type validateRequest struct {
	Config string `json:"config" binding:"required"`
}

func (s *Server) handleValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	issues, err := faber.ValidateCached(c.Request.Context(), s.cache, []byte(req.Config), s.ttl)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if issues == nil {
		issues = []gen.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":  !gen.HasErrors(issues),
		"issues": issues,
	})
}

type generateRequest struct {
	Config   string   `json:"config" binding:"required"`
	Targets  []string `json:"targets"`
	Kinds    []string `json:"kinds"`
	Features []string `json:"features"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	domain, err := faber.ParseBytes([]byte(req.Config))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	opts := []gen.Option{
		gen.WithLogger(s.log),
		gen.WithHooks(gen.StatsHook(s.stats)),
	}
	if len(req.Targets) > 0 {
		opts = append(opts, gen.WithTargets(req.Targets...))
	}
	if len(req.Kinds) > 0 {
		kinds := make([]gen.ArtifactKind, len(req.Kinds))
		for i, k := range req.Kinds {
			kinds[i] = gen.ArtifactKind(k)
		}
		opts = append(opts, gen.WithKinds(kinds...))
	}
	if len(req.Features) > 0 {
		opts = append(opts, gen.WithFeatureNames(req.Features...))
	}
	res, err := faber.Generate(c.Request.Context(), domain, opts...)
	var vErr *faber.ValidationFailedError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"valid":  false,
			"issues": vErr.Issues,
		})
		return
	case err != nil && !faber.IsPartialFailure(err):
		fail(c, http.StatusBadRequest, err)
		return
	}
	// Partial failures still return the manifest: per-cell status is
	// response data, not a transport error.
	artifacts := make(map[string]string, len(res.Artifacts))
	for p, b := range res.Artifacts {
		artifacts[p] = string(b)
	}
	c.JSON(http.StatusOK, gin.H{
		"manifest":  res.Manifest,
		"artifacts": artifacts,
	})
}
