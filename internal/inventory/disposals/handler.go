package disposals

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"SIMS-backend/internal/inventory/model"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/disposals", h.Create)
	r.GET("/disposals", h.List)
	r.GET("/disposals/:disposal_ulid", h.Get)
	r.PUT("/disposals/:disposal_ulid", h.Update)
	r.POST("/disposals/:disposal_ulid/approve", h.Approve)
	r.POST("/disposals/:disposal_ulid/reject", h.Reject)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateDisposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Header("Location", "/disposals/"+res.DisposalULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) List(c *gin.Context) {
	var f DisposalFilter
	if v := c.Query("item_ulid"); v != "" {
		f.ItemULID = &v
	}
	if v := c.Query("status"); v != "" {
		st := model.DisposalStatus(v)
		f.Status = &st
	}
	if v := c.Query("reason"); v != "" {
		rs := model.DisposalReason(v)
		f.Reason = &rs
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.To = &t
		}
	}
	p := model.Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}

	items, total, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("disposal_ulid"))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateDisposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, "invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("disposal_ulid"), req)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Approve(c *gin.Context) {
	res, err := h.svc.Approve(c.Request.Context(), c.Param("disposal_ulid"))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Reject(c *gin.Context) {
	res, err := h.svc.Reject(c.Request.Context(), c.Param("disposal_ulid"))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
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
