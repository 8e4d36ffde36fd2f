package handler

import (
	"errors"
	"net/http"
	"time"

	"parking_facility/internal/domain"
	"parking_facility/internal/engine"
	"parking_facility/internal/repository"
	"parking_facility/internal/service"

	"github.com/gin-gonic/gin"
)

type TransitHandler struct {
	parkingService *service.ParkingService
}

func NewTransitHandler(ps *service.ParkingService) *TransitHandler {
	return &TransitHandler{parkingService: ps}
}

// POST /gate-events — ghi nhận một lượt xe qua cổng.
// Từ chối nghiệp vụ (xe đã ở trong, hết chỗ, ...) trả 409; dữ liệu
// thiếu (cổng/xe không tồn tại) trả 404.
func (h *TransitHandler) RecordGateEvent(c *gin.Context) {
	var dto domain.GateEventDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.parkingService.RecordGateEvent(c.Request.Context(), dto)
	if err != nil {
		if engine.IsRejection(err) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể ghi nhận lượt qua cổng", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /transits?facilityId=&plate=&type=&from=&to=
func (h *TransitHandler) FindTransits(c *gin.Context) {
	var filter domain.TransitFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transits, err := h.parkingService.FindTransits(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi tìm transit", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transits)
}

// GET /vehicles/:plate/charge-estimate?at=
// Xem trước phí cho phiên đỗ đang mở, không đóng phiên.
func (h *TransitHandler) EstimateCharge(c *gin.Context) {
	plate := c.Param("plate")

	at := time.Now().UTC()
	if atStr := c.Query("at"); atStr != "" {
		parsed, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tham số at không hợp lệ (RFC3339)"})
			return
		}
		at = parsed
	}

	estimate, err := h.parkingService.EstimateCharge(c.Request.Context(), plate, at)
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenStay) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Xe không có phiên đỗ đang mở"})
			return
		}
		if errors.Is(err, engine.ErrInvalidStayInterval) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể ước tính phí", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, estimate)
}
