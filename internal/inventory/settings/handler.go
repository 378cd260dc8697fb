package settings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"SIMS-backend/internal/inventory/model"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/settings", h.Get)
	r.PUT("/settings", h.Put)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context())
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Put(c *gin.Context) {
	var req model.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(model.CodeValidation, "invalid json"))
		return
	}
	res, err := h.svc.Put(c.Request.Context(), req)
	if err != nil {
		c.JSON(model.ToHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
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
