package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/service"
)

type BrandingHandler struct{}

func NewBrandingHandler() *BrandingHandler {
	return &BrandingHandler{}
}

func brandingResult(c echo.Context, st service.BrandingState) error {
	if st.Error != nil {
		return st.Error
	}
	return c.JSON(http.StatusOK, brandingResponse{
		PartnerID: st.PartnerID,
		Branding:  st.Branding,
		Loading:   st.Loading,
	})
}

// Get returns the branding of the signed-in identity, loading it on first use.
// A partner without branding yields a null branding.
//
// @Summary      Current partner branding
// @Tags         branding
// @Produce      json
// @Success      200   {object}  brandingResponse
// @Failure      401   {object}  map[string]string
// @Failure      504   {object}  map[string]string
// @Router       /api/branding [get]
func (h *BrandingHandler) Get(c echo.Context) error {
	con, _, err := ctxCaller(c)
	if err != nil {
		return err
	}
	return brandingResult(c, con.Branding.Sync(c.Request().Context()))
}

// Reload drops the memoized branding and loads it again.
//
// @Summary      Reload partner branding
// @Tags         branding
// @Produce      json
// @Success      200   {object}  brandingResponse
// @Failure      401   {object}  map[string]string
// @Failure      504   {object}  map[string]string
// @Router       /api/branding/reload [post]
func (h *BrandingHandler) Reload(c echo.Context) error {
	con, _, err := ctxCaller(c)
	if err != nil {
		return err
	}
	return brandingResult(c, con.Branding.Reload(c.Request().Context()))
}

// Save writes the branding of the signed-in partner and applies it to the
// console theme.
//
// @Summary      Save partner branding
// @Tags         branding
// @Accept       json
// @Produce      json
// @Param        body  body      brandingRequest  true  "Branding fields"
// @Success      200   {object}  brandingResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/branding [put]
func (h *BrandingHandler) Save(c echo.Context) error {
	var req brandingRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	con, _, err := ctxCaller(c)
	if err != nil {
		return err
	}

	res := con.Branding.Save(c.Request().Context(), req.toDomain())
	if !res.Success {
		if res.Err == nil {
			return errors.New("branding save failed")
		}
		return res.Err
	}
	return c.JSON(http.StatusOK, brandingResponse{
		PartnerID: res.Config.PartnerID,
		Branding:  res.Config,
	})
}

// UploadFavicon stores a favicon in the branding bucket. The returned URL is
// saved as favicon_url with the next branding save.
//
// @Summary      Upload a favicon
// @Tags         branding
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PNG, ICO or SVG, at most 512 KB"
// @Success      201   {object}  faviconResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/branding/favicon [post]
func (h *BrandingHandler) UploadFavicon(c echo.Context) error {
	con, _, err := ctxCaller(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > service.MaxFaviconBytes {
		return domain.ErrInvalidAsset
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, service.MaxFaviconBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}

	url, err := con.Branding.UploadFavicon(c.Request().Context(), fh.Filename, body, fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, faviconResponse{URL: url})
}

// History lists recent branding saves of the signed-in partner.
//
// @Summary      Branding save history
// @Tags         branding
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries (1-100, default 20)"
// @Success      200    {object}  historyResponse
// @Failure      403    {object}  map[string]string
// @Router       /api/branding/history [get]
func (h *BrandingHandler) History(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	con, _, err := ctxCaller(c)
	if err != nil {
		return err
	}
	entries, err := con.Branding.History(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*domain.BrandingAuditEntry{}
	}
	return c.JSON(http.StatusOK, historyResponse{Entries: entries})
}
