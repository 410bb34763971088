package discussion

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carevista/carevista/internal/domain/access"
	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/auth"
	"github.com/carevista/carevista/pkg/pagination"
)

type Handler struct {
	svc  *Service
	gate *access.Gate
}

func NewHandler(svc *Service, gate *access.Gate) *Handler {
	return &Handler{svc: svc, gate: gate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/discussions", h.CreatePost)
	api.GET("/discussions", h.ListPosts)
	api.GET("/discussions/:id", h.GetPost)
	api.POST("/discussions/:id/replies", h.CreateReply)
	api.GET("/discussions/:id/replies", h.ListReplies)
}

func (h *Handler) require(c echo.Context, op string) error {
	ctx := c.Request().Context()
	principal := access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
	return h.gate.Require(ctx, access.Request{Principal: principal, Op: op})
}

type postRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) CreatePost(c echo.Context) error {
	if err := h.require(c, access.OpDiscussionWrite); err != nil {
		return err
	}
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	p, err := h.svc.CreatePost(ctx, auth.ActorIDFromContext(ctx), req.Title, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPosts(c echo.Context) error {
	if err := h.require(c, access.OpDiscussionRead); err != nil {
		return err
	}

	params := pagination.FromContext(c)
	posts, err := h.svc.ListPosts(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id")
	}
	return id, nil
}

func (h *Handler) GetPost(c echo.Context) error {
	if err := h.require(c, access.OpDiscussionRead); err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	p, err := h.svc.GetPost(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

type replyRequest struct {
	Body string `json:"body"`
}

func (h *Handler) CreateReply(c echo.Context) error {
	if err := h.require(c, access.OpDiscussionWrite); err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req replyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	r, err := h.svc.CreateReply(ctx, auth.ActorIDFromContext(ctx), id, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListReplies(c echo.Context) error {
	if err := h.require(c, access.OpDiscussionRead); err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	replies, err := h.svc.ListReplies(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, replies)
}
