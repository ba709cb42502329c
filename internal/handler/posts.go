package handler

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdesk/internal/seo"
	"newsdesk/internal/service"
	"newsdesk/internal/tts"
)

// ListPosts returns the published posts of one page as a JSON array.
func (h *Handler) ListPosts(c *gin.Context) {
	page, err := h.posts.List(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", h.pagination.PostsLimit))
	if err != nil {
		h.log.Error("list posts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}
	c.Header("X-Total-Count", strconv.FormatInt(page.Count, 10))
	c.JSON(http.StatusOK, page.Items)
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		h.log.Error("get post failed", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) BlogPage(c *gin.Context) {
	page, err := h.posts.List(c.Request.Context(), queryInt(c, "page", 1), h.pagination.PostsLimit)
	if err != nil {
		h.log.Error("blog page query failed", zap.Error(err))
		h.errorPage(c, http.StatusInternalServerError, "Failed to load posts")
		return
	}
	h.render(c, http.StatusOK, "blog.html", gin.H{
		"Meta":  seo.Blog(h.site, page.Page),
		"Posts": page.Items,
		"Pager": pager{Page: page.Page, HasPrev: page.Page > 1, HasMore: page.HasMore, Base: "/blog?page="},
	})
}

// PostPage renders one post. The body is sanitized before it is trusted as HTML.
func (h *Handler) PostPage(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		h.errorPage(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.log.Error("post page query failed", zap.String("id", c.Param("id")), zap.Error(err))
		h.errorPage(c, http.StatusInternalServerError, "Failed to load post")
		return
	}

	audio := tts.FileName(strconv.FormatUint(uint64(post.ID), 10), h.site.Language)
	h.render(c, http.StatusOK, "post.html", gin.H{
		"Meta":     seo.Post(h.site, post),
		"Post":     post,
		"Content":  template.HTML(h.sanitizer.SanitizeHTML(post.Content)),
		"AudioURL": h.tts.AudioURL(audio),
		"Audio": gin.H{
			"name":  audio,
			"voice": h.tts.Voice(),
		},
	})
}
