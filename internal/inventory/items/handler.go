package items

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"SIMS-backend/internal/inventory/model"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/items", h.CreateItem)
	r.GET("/items", h.ListItems)
	r.GET("/items/:item_ulid", h.GetItem)
	r.PUT("/items/:item_ulid", h.UpdateItem)
	r.DELETE("/items/:item_ulid", h.DeleteItem)
	r.GET("/items/:item_ulid/availability", h.Availability)
	r.POST("/items/import", h.ImportItems)
}

func (h *Handler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.CreateItem(c.Request.Context(), req)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Header("Location", "/items/"+res.ItemULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListItems(c *gin.Context) {
	var f ItemFilter
	if v := c.Query("category"); v != "" {
		f.Category = &v
	}
	if v := c.Query("type"); v != "" {
		t := model.ItemType(v)
		f.Type = &t
	}
	if v := c.Query("location"); v != "" {
		f.Location = &v
	}
	if v := c.Query("q"); v != "" {
		f.Query = &v
	}
	if v := c.Query("include_retired"); v == "true" || v == "1" {
		f.IncludeRetired = true
	}
	p := model.Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}

	items, total, err := h.svc.ListItems(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) GetItem(c *gin.Context) {
	res, err := h.svc.GetItem(c.Request.Context(), c.Param("item_ulid"))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, "invalid json"))
		return
	}
	res, err := h.svc.UpdateItem(c.Request.Context(), c.Param("item_ulid"), req)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteItem(c *gin.Context) {
	res, err := h.svc.DeleteItem(c.Request.Context(), c.Param("item_ulid"))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Availability(c *gin.Context) {
	res, err := h.svc.Availability(c.Request.Context(), c.Param("item_ulid"))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ImportItems accepts a CSV body (multipart "file" field or raw body).
func (h *Handler) ImportItems(c *gin.Context) {
	body := c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, "cannot open uploaded file"))
			return
		}
		defer f.Close()
		body = f
	}

	res, err := h.svc.ImportCSV(c.Request.Context(), body)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, err.Error()))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ===== helpers =====

func atoiDef(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type errorDTO struct {
	Error struct {
		Code    model.Code `json:"code"`
		Message string     `json:"message"`
	} `json:"error"`
}

func apiErr(code model.Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func apiErrFrom(err error) errorDTO {
	var api *model.APIError
	if errors.As(err, &api) {
		return apiErr(api.Code, api.Message)
	}
	return apiErr(model.CodeStore, err.Error())
}
