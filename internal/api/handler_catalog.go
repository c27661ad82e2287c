package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-timeline-backend/internal/parse"
)

type restaurantResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mealShiftResponse struct {
	Label string `json:"label"`
	Code  int    `json:"code"`
}

type catalogResponse struct {
	Restaurants       []restaurantResponse `json:"restaurants"`
	MealShifts        []mealShiftResponse  `json:"meal_shifts"`
	ConfirmedStatuses []string             `json:"confirmed_statuses"`
	DefaultDuration   int                  `json:"default_duration"`
	EndPadding        int                  `json:"end_padding"`
	Timezone          string               `json:"timezone"`
}

// GetCatalog handles GET /api/catalog.
func (h *Handler) GetCatalog(c *gin.Context) {
	catalog := h.engine.Catalog()

	response := catalogResponse{
		Restaurants:       []restaurantResponse{},
		MealShifts:        []mealShiftResponse{},
		ConfirmedStatuses: catalog.ConfirmedStatuses(),
		DefaultDuration:   catalog.DefaultDuration(),
		EndPadding:        catalog.EndPadding(),
		Timezone:          h.engine.Clock().Location().String(),
	}
	for _, id := range catalog.Restaurants() {
		response.Restaurants = append(response.Restaurants, restaurantResponse{
			ID:   id,
			Name: parse.RestaurantDisplayName(id),
		})
	}
	for _, s := range catalog.MealShifts() {
		response.MealShifts = append(response.MealShifts, mealShiftResponse{Label: s.Label, Code: s.Code})
	}

	c.JSON(http.StatusOK, response)
}
