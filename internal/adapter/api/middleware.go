package api

import (
	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"strings"
)

const KeyClientSource = "client_source"

// ClientSource stores a short "Browser/OS" description of the caller,
// parsed from the User-Agent header, under KeyClientSource.
func ClientSource(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(KeyClientSource, describeAgent(c.Request().UserAgent()))
		return next(c)
	}
}

func describeAgent(header string) string {
	if header == "" {
		return ""
	}
	agent := useragent.Parse(header)

	parts := make([]string, 0, 2)
	if agent.Name != "" {
		parts = append(parts, agent.Name)
	}
	if agent.OS != "" {
		parts = append(parts, agent.OS)
	}
	return strings.Join(parts, "/")
}

func clientSource(c echo.Context) string {
	source, _ := c.Get(KeyClientSource).(string)
	return source
}
