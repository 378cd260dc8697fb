package transactions

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

	r.POST("/transactions", h.Create)
	r.GET("/transactions", h.List)
	r.GET("/transactions/overdue", h.ListOverdue)
	r.GET("/transactions/:transaction_ulid", h.Get)
	r.POST("/transactions/:transaction_ulid/return", h.MarkReturned)
	r.PUT("/transactions/:transaction_ulid/return-date", h.UpdateReturnDate)
	r.DELETE("/transactions/:transaction_ulid", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Header("Location", "/transactions/"+res.TransactionULID)
	c.JSON(http.StatusCreated, res)
}

func parseFilter(c *gin.Context) TransactionFilter {
	var f TransactionFilter
	if v := c.Query("item_ulid"); v != "" {
		f.ItemULID = &v
	}
	if v := c.Query("teacher"); v != "" {
		f.Teacher = &v
	}
	if v := c.Query("type"); v != "" {
		t := model.TransactionType(v)
		f.Type = &t
	}
	if v := c.Query("status"); v != "" {
		st := model.TransactionStatus(v)
		f.Status = &st
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
	return f
}

func (h *Handler) List(c *gin.Context) {
	f := parseFilter(c)
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

func (h *Handler) ListOverdue(c *gin.Context) {
	items, err := h.svc.ListOverdue(c.Request.Context(), parseFilter(c))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("transaction_ulid"))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkReturned(c *gin.Context) {
	res, err := h.svc.MarkReturned(c.Request.Context(), c.Param("transaction_ulid"))
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateReturnDate(c *gin.Context) {
	var req UpdateReturnDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, "invalid json"))
		return
	}
	res, err := h.svc.UpdateReturnDate(c.Request.Context(), c.Param("transaction_ulid"), req)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("transaction_ulid")); err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
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
