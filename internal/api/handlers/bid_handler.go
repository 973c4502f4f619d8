// internal/api/handlers/bid_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"logiledger-api-server/internal/service"
)

type BidHandler struct {
	Bids *service.BidService
}

// CreateBidRequest accepts both the current field names and the older
// bidAmount/notes spelling.
type CreateBidRequest struct {
	ConsignmentID         string   `json:"consignmentId"`
	Amount                *float64 `json:"amount" binding:"omitempty,gt=0"`
	BidAmount             *float64 `json:"bidAmount" binding:"omitempty,gt=0"`
	EstimatedDelivery     string   `json:"estimatedDelivery"`
	EstimatedDeliveryTime int      `json:"estimatedDeliveryTime" binding:"gte=0"`
	Message               string   `json:"message"`
	Notes                 string   `json:"notes"`
	VehicleType           string   `json:"vehicleType"`
	VehicleCapacity       float64  `json:"vehicleCapacity" binding:"gte=0"`
	Insurance             bool     `json:"insurance"`
	Tracking              bool     `json:"tracking"`
	SpecialConditions     string   `json:"specialConditions"`
}

func (r CreateBidRequest) amount() float64 {
	switch {
	case r.Amount != nil:
		return *r.Amount
	case r.BidAmount != nil:
		return *r.BidAmount
	default:
		return 0
	}
}

func (h *BidHandler) Create(c *gin.Context) {
	var req CreateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	message := req.Message
	if message == "" {
		message = req.Notes
	}

	bid, err := h.Bids.Create(c.Request.Context(), currentUser(c), service.CreateBidInput{
		ConsignmentID:         req.ConsignmentID,
		Amount:                req.amount(),
		EstimatedDelivery:     req.EstimatedDelivery,
		EstimatedDeliveryTime: req.EstimatedDeliveryTime,
		Message:               message,
		VehicleType:           req.VehicleType,
		VehicleCapacity:       req.VehicleCapacity,
		Insurance:             req.Insurance,
		Tracking:              req.Tracking,
		SpecialConditions:     req.SpecialConditions,
	})
	if err != nil {
		respondError(c, err, "create bid")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"bid":     bid,
		"message": "Bid placed successfully",
	})
}

func (h *BidHandler) ListMine(c *gin.Context) {
	bids, err := h.Bids.ListMine(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "list my bids")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bids": orEmpty(bids)})
}

func (h *BidHandler) ListForConsignment(c *gin.Context) {
	bids, err := h.Bids.ListForConsignment(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "list consignment bids")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bids": orEmpty(bids)})
}

func (h *BidHandler) Award(c *gin.Context) {
	result, err := h.Bids.Award(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "award bid")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"bid":          result.Bid,
		"consignment":  result.Consignment,
		"rejectedBids": len(result.Rejected),
		"message":      "Bid awarded successfully",
	})
}

func (h *BidHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}

	bid, err := h.Bids.UpdateStatus(c.Request.Context(), currentUser(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "update bid status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bid":     bid,
		"message": "Bid status updated successfully",
	})
}
