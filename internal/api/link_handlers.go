package api

import (
	"crypto/rand"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"shortlink-backend/internal/database"
	"shortlink-backend/internal/models"
)

const (
	shortCodeAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	shortCodeLength    = 7
	shortCodeMinLength = 2
)

// listLinksHandler handles GET /api/links
func listLinksHandler(c echo.Context) error {
	user := getUserFromContext(c)

	links, err := linkRepo.GetByUserID(user.ID)
	if err != nil {
		c.Logger().Error("list links error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list links",
		})
	}

	return c.JSON(http.StatusOK, links)
}

// createLinkHandler handles POST /api/links
func createLinkHandler(c echo.Context) error {
	user := getUserFromContext(c)

	var req models.CreateLinkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	req.URL = strings.TrimSpace(req.URL)
	req.ShortCode = strings.TrimSpace(req.ShortCode)
	if msg := validateLinkInput(req.URL, req.ShortCode, false); msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}

	shortCode := req.ShortCode
	if shortCode == "" {
		var err error
		shortCode, err = generateShortCode()
		if err != nil {
			c.Logger().Error("short code generation error: ", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to create link",
			})
		}
	}

	link := &models.Link{
		ShortCode: shortCode,
		URL:       req.URL,
		UserID:    user.ID,
	}
	if err := linkRepo.Create(link); err != nil {
		if errors.Is(err, database.ErrShortCodeTaken) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "short code already exists, try another short code",
			})
		}
		c.Logger().Error("create link error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to create link",
		})
	}

	authService.Audit(user.ID, user.Username, models.ActionLinkCreate, link.ShortCode, map[string]string{
		"url": link.URL,
	}, c.RealIP())

	return c.JSON(http.StatusCreated, link)
}

// getLinkHandler handles GET /api/links/:id
func getLinkHandler(c echo.Context) error {
	user := getUserFromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid link ID",
		})
	}

	link, err := linkRepo.GetByID(id)
	if err != nil || link.UserID != user.ID {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "link not found",
		})
	}

	return c.JSON(http.StatusOK, link)
}

// updateLinkHandler handles PUT /api/links/:id
func updateLinkHandler(c echo.Context) error {
	user := getUserFromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid link ID",
		})
	}

	var req models.UpdateLinkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	req.URL = strings.TrimSpace(req.URL)
	req.ShortCode = strings.TrimSpace(req.ShortCode)
	if msg := validateLinkInput(req.URL, req.ShortCode, true); msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}

	if err := linkRepo.Update(id, user.ID, req.URL, req.ShortCode); err != nil {
		switch {
		case errors.Is(err, database.ErrLinkNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "link not found",
			})
		case errors.Is(err, database.ErrShortCodeTaken):
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "short code already exists, try another short code",
			})
		default:
			c.Logger().Error("update link error: ", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to update link",
			})
		}
	}

	authService.Audit(user.ID, user.Username, models.ActionLinkUpdate, req.ShortCode, map[string]string{
		"url": req.URL,
	}, c.RealIP())

	link, err := linkRepo.GetByID(id)
	if err != nil {
		c.Logger().Error("reload link error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to update link",
		})
	}
	return c.JSON(http.StatusOK, link)
}

// deleteLinkHandler handles DELETE /api/links/:id
func deleteLinkHandler(c echo.Context) error {
	user := getUserFromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid link ID",
		})
	}

	if err := linkRepo.Delete(id, user.ID); err != nil {
		if errors.Is(err, database.ErrLinkNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "link not found",
			})
		}
		c.Logger().Error("delete link error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to delete link",
		})
	}

	authService.Audit(user.ID, user.Username, models.ActionLinkDelete, "", map[string]int64{
		"link_id": id,
	}, c.RealIP())

	return c.JSON(http.StatusOK, map[string]string{
		"message": "link deleted",
	})
}

// redirectHandler handles GET /:code — the public short link redirect
func redirectHandler(c echo.Context) error {
	code := c.Param("code")

	link, err := linkRepo.GetByShortCode(code)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "short link not found",
		})
	}

	return c.Redirect(http.StatusFound, link.URL)
}

// validateLinkInput checks the destination URL and optional short code.
// Returns an error message, or empty string when valid.
func validateLinkInput(rawURL, shortCode string, codeRequired bool) string {
	if rawURL == "" {
		return "url is required"
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "check the URL"
	}

	if shortCode == "" {
		if codeRequired {
			return "short code is required"
		}
		return ""
	}
	if len(shortCode) < shortCodeMinLength {
		return "short code must have at least 2 characters"
	}
	for _, r := range shortCode {
		if !strings.ContainsRune(shortCodeAlphabet, r) && r != '-' && r != '_' {
			return "short code may only contain letters, digits, - and _"
		}
	}
	return ""
}

// generateShortCode returns a random base62 code
func generateShortCode() (string, error) {
	b := make([]byte, shortCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = shortCodeAlphabet[int(b[i])%len(shortCodeAlphabet)]
	}
	return string(b), nil
}
