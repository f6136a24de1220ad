package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dailydiet/internal/app"
	"dailydiet/internal/model"
	"dailydiet/internal/transport/http/middleware"
	"dailydiet/internal/transport/http/response"
)

type DietHandler struct {
	dietService *app.DietService
}

type CreateDietRequest struct {
	Title          string `json:"title" binding:"required,max=128"`
	Description    string `json:"description" binding:"required"`
	ConsistentDiet *bool  `json:"consistent_diet"`
}

type UpdateDietRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Date           string `json:"date"`
	ConsistentDiet bool   `json:"consistent_diet"`
}

type DietView struct {
	ID             uint   `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	DateTime       string `json:"date_time"`
	ConsistentDiet bool   `json:"consistent_diet"`
}

func NewDietHandler(dietService *app.DietService) *DietHandler {
	return &DietHandler{dietService: dietService}
}

func (h *DietHandler) Create(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	var req CreateDietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	consistent := true
	if req.ConsistentDiet != nil {
		consistent = *req.ConsistentDiet
	}

	diet, err := h.dietService.Create(caller, app.CreateDietInput{
		Title:          req.Title,
		Description:    req.Description,
		ConsistentDiet: consistent,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create diet failed")
		}
		return
	}

	response.OK(c, gin.H{"id": diet.ID})
}

func (h *DietHandler) Read(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	diet, err := h.dietService.Get(caller, id)
	if err != nil {
		h.writeDietError(c, err, "read diet failed")
		return
	}

	response.OK(c, toDietView(*diet))
}

func (h *DietHandler) Update(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateDietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	diet, err := h.dietService.Update(caller, id, app.UpdateDietInput{
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		ConsistentDiet: req.ConsistentDiet,
	})
	if err != nil {
		h.writeDietError(c, err, "update diet failed")
		return
	}

	response.OK(c, toDietView(*diet))
}

func (h *DietHandler) Delete(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.dietService.Delete(caller, id); err != nil {
		h.writeDietError(c, err, "delete diet failed")
		return
	}

	response.OK(c, gin.H{"deleted_diet_id": id})
}

func (h *DietHandler) ListByUser(c *gin.Context) {
	if _, ok := middleware.CallerFromContext(c); !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	diets, err := h.dietService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.writeDietError(c, err, "list diets failed")
		return
	}

	views := make([]DietView, 0, len(diets))
	for _, diet := range diets {
		views = append(views, toDietView(diet))
	}
	response.OK(c, views)
}

func (h *DietHandler) writeDietError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrBadDate):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidDate, err.Error())
	case errors.Is(err, app.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "not the owner of this diet entry")
	case errors.Is(err, app.ErrDietNotFound), errors.Is(err, app.ErrNoDiets):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func toDietView(diet model.Diet) DietView {
	return DietView{
		ID:             diet.ID,
		Title:          diet.Title,
		Description:    diet.Description,
		DateTime:       diet.DateTime.Format("2006-01-02T15:04:05"),
		ConsistentDiet: diet.ConsistentDiet,
	}
}
