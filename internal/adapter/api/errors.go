package api

import (
	"fmt"
	"github.com/labstack/echo/v4"
)

type JsonErrorModel struct {
	Message string `json:"message"`
}

// JsonError writes content as {"message": ...} with the given status.
func JsonError(c echo.Context, status int, content any) error {
	var msg string
	switch v := content.(type) {
	case error:
		msg = v.Error()
	default:
		msg = fmt.Sprintf("%v", v)
	}
	return c.JSON(status, &JsonErrorModel{Message: msg})
}
