package handler

import (
	"errors"
	"net/http"

	"parking_facility/internal/domain"
	"parking_facility/internal/repository"
	"parking_facility/internal/service"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	parkingService *service.ParkingService
}

func NewVehicleHandler(ps *service.ParkingService) *VehicleHandler {
	return &VehicleHandler{parkingService: ps}
}

// POST /vehicles
func (h *VehicleHandler) RegisterVehicle(c *gin.Context) {
	var dto domain.VehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.parkingService.RegisterVehicle(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đăng ký xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// GET /vehicles/:plate
func (h *VehicleHandler) GetVehicleByPlate(c *gin.Context) {
	plate := c.Param("plate")

	vehicle, err := h.parkingService.GetVehicleByPlate(c.Request.Context(), plate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin xe"})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// GET /vehicles
func (h *VehicleHandler) GetAllVehicles(c *gin.Context) {
	vehicles, err := h.parkingService.GetAllVehicles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách xe"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// PUT /vehicles/:plate
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	plate := c.Param("plate")

	var dto domain.VehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.parkingService.UpdateVehicle(c.Request.Context(), plate, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe để cập nhật"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// DELETE /vehicles/:plate
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	plate := c.Param("plate")

	err := h.parkingService.DeleteVehicle(c.Request.Context(), plate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe để xóa"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
