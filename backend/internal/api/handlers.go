package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"objectgraph/backend/internal/objectgraph"
	apperrors "objectgraph/backend/pkg/errors"
)

// ============================================================================
// Requests
// ============================================================================

type createConceptRequest struct {
	Name string `json:"name" validate:"required"`
	ID   string `json:"id"`
}

type createNodeRequest struct {
	ID string `json:"id"`
}

type createSpacetimeRequest struct {
	PhotoURI string `json:"photoUri" validate:"required"`
	ID       string `json:"id"`
}

type spacetimeInstanceRequest struct {
	SpacetimeID  string               `json:"spacetimeId" validate:"required"`
	InstanceID   string               `json:"instanceId" validate:"required"`
	Relationship *objectgraph.TagInfo `json:"relationship"`
}

type instanceSpacetimeRequest struct {
	InstanceID  string `json:"instanceId" validate:"required"`
	SpacetimeID string `json:"spacetimeId" validate:"required"`
}

type instanceInstanceRequest struct {
	ParentID string `json:"parentId" validate:"required"`
	ChildID  string `json:"childId" validate:"required"`
}

type catalogRequest struct {
	Name string `json:"name" validate:"required"`
}

// bind decodes and validates a JSON body. An empty body is accepted when
// every field is optional.
func (s *Server) bind(c *gin.Context, req interface{}, allowEmpty bool) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return false
		}
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(c, err)
		return false
	}
	return true
}

// writeError maps typed errors to status codes
func (s *Server) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsDuplicate(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Request cancelled"})
	case apperrors.IsRetryable(err):
		s.logger.Warn("Graph database unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph database unavailable"})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================================================
// Graph
// ============================================================================

func (s *Server) getGraph(c *gin.Context) {
	c.JSON(http.StatusOK, s.current().Snapshot())
}

func (s *Server) getCounts(c *gin.Context) {
	c.JSON(http.StatusOK, s.current().Counts())
}

// reloadGraph hydrates a fresh store and swaps it in only once the load has
// succeeded
func (s *Server) reloadGraph(c *gin.Context) {
	if s.hydrator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph database not configured"})
		return
	}

	store := objectgraph.New(objectgraph.WithLogger(s.logger.Named("objectgraph")))
	stats, err := s.hydrator.Load(c.Request.Context(), store)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.replace(store)

	s.logger.Info("Session graph reloaded", zap.Int("instances", stats.Instances))
	c.JSON(http.StatusOK, stats)
}

func (s *Server) persistGraph(c *gin.Context) {
	if s.persister == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph database not configured"})
		return
	}

	snap := s.current().Snapshot()
	if err := s.persister.SaveSnapshot(c.Request.Context(), snap); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "persisted"})
}

// ============================================================================
// Nodes
// ============================================================================

func (s *Server) createConcept(c *gin.Context) {
	var req createConceptRequest
	if !s.bind(c, &req, false) {
		return
	}
	id, err := s.current().AddConceptNode(req.Name, req.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) createObject(c *gin.Context) {
	var req createNodeRequest
	if !s.bind(c, &req, true) {
		return
	}
	id, err := s.current().AddObjectNode(req.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) createInstance(c *gin.Context) {
	var req createNodeRequest
	if !s.bind(c, &req, true) {
		return
	}
	id, err := s.current().AddInstanceNode(req.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) editInstance(c *gin.Context) {
	var detail objectgraph.InstanceDetail
	if !s.bind(c, &detail, false) {
		return
	}

	id := c.Param("id")
	store := s.current()
	if err := store.EditInstanceNode(id, detail); err != nil {
		s.writeError(c, err)
		return
	}
	node, _ := store.Instance(id)
	c.JSON(http.StatusOK, node)
}

func (s *Server) createSpacetime(c *gin.Context) {
	var req createSpacetimeRequest
	if !s.bind(c, &req, false) {
		return
	}
	id, err := s.current().AddSpacetimeNode(req.PhotoURI, req.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) createCatalogEntry(c *gin.Context) {
	var req catalogRequest
	if !s.bind(c, &req, false) {
		return
	}
	entry, err := s.current().CreateNewObjectAndInstance(req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ============================================================================
// Edges
// ============================================================================

func (s *Server) linkConceptInstance(c *gin.Context) {
	var edge objectgraph.ConceptInstanceEdge
	if !s.bind(c, &edge, false) {
		return
	}
	if err := s.current().AddConceptAndInstanceEdge(edge); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "linked"})
}

func (s *Server) linkObjectInstance(c *gin.Context) {
	var edge objectgraph.ObjectInstanceEdge
	if !s.bind(c, &edge, false) {
		return
	}
	if err := s.current().AddObjectAndInstanceEdge(edge); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "linked"})
}

func (s *Server) linkSpacetimeInstance(c *gin.Context) {
	var req spacetimeInstanceRequest
	if !s.bind(c, &req, false) {
		return
	}
	if err := s.current().AddSpacetimeToInstanceEdge(req.SpacetimeID, req.InstanceID, req.Relationship); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "linked"})
}

func (s *Server) linkInstanceSpacetime(c *gin.Context) {
	var req instanceSpacetimeRequest
	if !s.bind(c, &req, false) {
		return
	}
	if err := s.current().AddInstanceToSpacetimeEdge(req.InstanceID, req.SpacetimeID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "linked"})
}

func (s *Server) linkInstanceInstance(c *gin.Context) {
	var req instanceInstanceRequest
	if !s.bind(c, &req, false) {
		return
	}
	if err := s.current().AddInstanceToInstanceEdge(req.ParentID, req.ChildID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "linked"})
}
