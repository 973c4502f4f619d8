// internal/api/handlers/consignment_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/service"
)

type ConsignmentHandler struct {
	Consignments *service.ConsignmentService
}

type CreateConsignmentRequest struct {
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	GoodsType           string               `json:"goodsType" binding:"omitempty,goodstype"`
	Origin              models.LocationInput `json:"origin"`
	Destination         models.LocationInput `json:"destination"`
	Weight              float64              `json:"weight" binding:"gte=0"`
	Budget              float64              `json:"budget" binding:"gte=0"`
	Deadline            string               `json:"deadline"`
	SpecialRequirements string               `json:"specialRequirements"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *ConsignmentHandler) Create(c *gin.Context) {
	var req CreateConsignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}

	consignment, matching, err := h.Consignments.Create(c.Request.Context(), currentUser(c), service.CreateConsignmentInput{
		Title:               req.Title,
		Description:         req.Description,
		GoodsType:           req.GoodsType,
		Origin:              req.Origin,
		Destination:         req.Destination,
		Weight:              req.Weight,
		Budget:              req.Budget,
		Deadline:            req.Deadline,
		SpecialRequirements: req.SpecialRequirements,
	})
	if err != nil {
		respondError(c, err, "create consignment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"consignment":   consignment,
		"matchingMSMEs": matching,
		"message":       "Consignment created successfully",
	})
}

func (h *ConsignmentHandler) ListMine(c *gin.Context) {
	list, err := h.Consignments.ListMine(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "list my consignments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "consignments": orEmpty(list)})
}

func (h *ConsignmentHandler) ListAvailable(c *gin.Context) {
	available, err := h.Consignments.ListAvailable(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "list available consignments")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"consignments":   orEmpty(available.Consignments),
		"totalAvailable": available.TotalAvailable,
		"matchingCount":  available.MatchingCount,
		"userLocation":   available.UserLocation,
	})
}

func (h *ConsignmentHandler) ListPublic(c *gin.Context) {
	list, err := h.Consignments.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, err, "list public consignments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "consignments": orEmpty(list)})
}

func (h *ConsignmentHandler) Get(c *gin.Context) {
	consignment, err := h.Consignments.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "get consignment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "consignment": consignment})
}

func (h *ConsignmentHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}

	consignment, err := h.Consignments.UpdateStatus(c.Request.Context(), currentUser(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "update consignment status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"consignment": consignment,
		"message":     "Consignment status updated successfully",
	})
}

func (h *ConsignmentHandler) Recommendations(c *gin.Context) {
	recs, err := h.Consignments.Recommendations(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "location recommendations")
		return
	}
	recs.MatchingConsignments = orEmpty(recs.MatchingConsignments)
	recs.NearbyPartners = orEmpty(recs.NearbyPartners)
	c.JSON(http.StatusOK, gin.H{"success": true, "recommendations": recs})
}

// orEmpty keeps list payloads as [] instead of null.
func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
