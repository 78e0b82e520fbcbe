package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/wordsmith/internal/writing"
)

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			s.logger.Sugar().Warnw("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) submitCurriculum(c *gin.Context) {
	var req writing.CurriculumSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, CodeInvalidRequest, "request body must be a JSON object")
		return
	}
	res, err := s.svc.SubmitCurriculum(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) submitDemo(c *gin.Context) {
	var req writing.DemoSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, CodeInvalidRequest, "request body must be a JSON object")
		return
	}
	a, err := s.svc.SubmitDemo(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessment": a})
}

func (s *Server) saveDraft(c *gin.Context) {
	var req writing.DraftInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, CodeInvalidRequest, "request body must be a JSON object")
		return
	}
	a, err := s.svc.SaveDraft(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": a})
}

func (s *Server) formulas(c *gin.Context) {
	lesson, err := strconv.Atoi(c.Query("lesson"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, CodeValidation, "lesson: must be an integer")
		return
	}
	subject := c.Query("subject")
	fs, err := s.svc.GenerateFormulas(lesson, subject, c.Query("category"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lesson": lesson, "subject": subject, "formulas": fs})
}

func (s *Server) listLevels(c *gin.Context) {
	levels, err := s.svc.Levels(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"levels": levels})
}

func (s *Server) getLevel(c *gin.Context) {
	l, err := s.svc.Level(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) progress(c *gin.Context) {
	p, err := s.svc.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) mastery(c *gin.Context) {
	list, err := s.svc.Mastery(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pupil_id": c.Param("id"), "concepts": list})
}

func (s *Server) attempts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, CodeValidation, "limit: must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.svc.Attempts(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": list})
}
