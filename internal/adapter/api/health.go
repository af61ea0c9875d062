package api

import (
	"github.com/labstack/echo/v4"
	"net/http"
)

func (s *Server) MountHealth() {
	s.handler.GET("/healthz", s.Health)
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) Health(c echo.Context) error {
	if err := s.db.PingContext(c.Request().Context()); err != nil {
		s.logger.Error("database ping failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
