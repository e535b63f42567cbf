package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/knowledgehub/internal/apperr"
	"github.com/iliyamo/knowledgehub/internal/middleware"
	"github.com/iliyamo/knowledgehub/internal/model"
	"github.com/iliyamo/knowledgehub/internal/service"
)

// ArticleHandler serves the article endpoints. Reads are public; writes
// require JWTAuth.
type ArticleHandler struct {
	Articles *service.ArticleService
}

func NewArticleHandler(s *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{Articles: s}
}

// GET /api/articles?search=&category=&page=&limit=
func (h *ArticleHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	f := model.ArticleFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Page:     page,
		Limit:    limit,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Articles.List(ctx, f)
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, "Articles fetched successfully", out)
}

// GET /api/articles/:id
func (h *ArticleHandler) Get(c echo.Context) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Articles.Get(ctx, id)
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, "Article fetched successfully", a)
}

// POST /api/articles
func (h *ArticleHandler) Create(c echo.Context) error {
	user, _ := middleware.CurrentUser(c)
	in, err := bindArticle(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id, err := h.Articles.Create(ctx, user.UserID, in)
	if err != nil {
		return err
	}
	return send(c, http.StatusCreated, "Article created successfully", echo.Map{"articleId": id})
}

// PUT /api/articles/:id (owner only)
func (h *ArticleHandler) Update(c echo.Context) error {
	user, _ := middleware.CurrentUser(c)
	id, err := articleID(c)
	if err != nil {
		return err
	}
	in, err := bindArticle(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Articles.Update(ctx, id, user.UserID, in); err != nil {
		return err
	}
	return send(c, http.StatusOK, "Article updated successfully", nil)
}

// DELETE /api/articles/:id (owner only)
func (h *ArticleHandler) Delete(c echo.Context) error {
	user, _ := middleware.CurrentUser(c)
	id, err := articleID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Articles.Delete(ctx, id, user.UserID); err != nil {
		return err
	}
	return send(c, http.StatusOK, "Article deleted successfully", nil)
}

// GET /api/articles/my/all
func (h *ArticleHandler) Mine(c echo.Context) error {
	user, _ := middleware.CurrentUser(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	articles, err := h.Articles.ListMine(ctx, user.UserID)
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, "Your articles fetched successfully", echo.Map{"articles": articles})
}

// POST /api/articles/ai/suggest
func (h *ArticleHandler) Suggest(c echo.Context) error {
	var req suggestReq
	if err := c.Bind(&req); err != nil {
		return badBody(err)
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Articles.Suggest(ctx, req.Content)
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, "AI suggestions generated", out)
}

func bindArticle(c echo.Context) (service.ArticleInput, error) {
	var req articleReq
	if err := c.Bind(&req); err != nil {
		return service.ArticleInput{}, badBody(err)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return service.ArticleInput{}, validationError(err)
	}
	return service.ArticleInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	}, nil
}

// articleID parses :id. Anything that is not a positive integer cannot name
// an article, so it is reported as not found.
func articleID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("Article not found")
	}
	return id, nil
}
