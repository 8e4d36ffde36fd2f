package handler

import (
	"errors"
	"net/http"
	"strconv"

	"parking_facility/internal/domain"
	"parking_facility/internal/repository"
	"parking_facility/internal/service"

	"github.com/gin-gonic/gin"
)

type TariffHandler struct {
	parkingService *service.ParkingService
}

func NewTariffHandler(ps *service.ParkingService) *TariffHandler {
	return &TariffHandler{parkingService: ps}
}

// POST /tariff-windows
func (h *TariffHandler) CreateTariffWindow(c *gin.Context) {
	var dto domain.TariffWindowDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	window, err := h.parkingService.CreateTariffWindow(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Không thể tạo khung giá", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, window)
}

// GET /tariff-windows/:id
func (h *TariffHandler) GetTariffWindowByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID khung giá không hợp lệ"})
		return
	}

	window, err := h.parkingService.GetTariffWindowByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy khung giá"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy khung giá"})
		return
	}
	c.JSON(http.StatusOK, window)
}

// GET /facilities/:id/tariff-windows
func (h *TariffHandler) GetTariffWindowsByFacility(c *gin.Context) {
	facilityID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID bãi đỗ không hợp lệ"})
		return
	}

	windows, err := h.parkingService.GetTariffWindowsByFacility(c.Request.Context(), facilityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy biểu giá"})
		return
	}
	c.JSON(http.StatusOK, windows)
}

// PUT /tariff-windows/:id
func (h *TariffHandler) UpdateTariffWindow(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID khung giá không hợp lệ"})
		return
	}

	var dto domain.TariffWindowDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	window, err := h.parkingService.UpdateTariffWindow(c.Request.Context(), id, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy khung giá để cập nhật"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Không thể cập nhật khung giá", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, window)
}

// DELETE /tariff-windows/:id
func (h *TariffHandler) DeleteTariffWindow(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID khung giá không hợp lệ"})
		return
	}

	err = h.parkingService.DeleteTariffWindow(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy khung giá để xóa"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa khung giá", "details": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
