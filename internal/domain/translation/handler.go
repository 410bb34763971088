package translation

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carevista/carevista/internal/platform/providers"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/translate", h.Translate)
	api.GET("/translate/languages", h.Languages)
}

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

func (h *Handler) Translate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Translate(c.Request().Context(), req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Languages(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"languages": providers.SupportedLanguages()})
}
