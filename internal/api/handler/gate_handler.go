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

type GateHandler struct {
	parkingService *service.ParkingService
}

func NewGateHandler(ps *service.ParkingService) *GateHandler {
	return &GateHandler{parkingService: ps}
}

// POST /gates
func (h *GateHandler) CreateGate(c *gin.Context) {
	var dto domain.GateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gate, err := h.parkingService.CreateGate(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo cổng", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gate)
}

// GET /gates/:id
func (h *GateHandler) GetGateByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID cổng không hợp lệ"})
		return
	}

	gate, err := h.parkingService.GetGateByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy cổng"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin cổng"})
		return
	}
	c.JSON(http.StatusOK, gate)
}

// GET /facilities/:id/gates
func (h *GateHandler) GetGatesByFacilityID(c *gin.Context) {
	facilityID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID bãi đỗ không hợp lệ"})
		return
	}

	gates, err := h.parkingService.GetGatesByFacilityID(c.Request.Context(), facilityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách cổng"})
		return
	}
	c.JSON(http.StatusOK, gates)
}

// PUT /gates/:id — không nhận direction: hướng cổng là bất biến sau khi tạo.
func (h *GateHandler) UpdateGate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID cổng không hợp lệ"})
		return
	}

	var dto domain.GateUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gate, err := h.parkingService.UpdateGate(c.Request.Context(), id, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy cổng để cập nhật"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật cổng", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gate)
}

// DELETE /gates/:id
func (h *GateHandler) DeleteGate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID cổng không hợp lệ"})
		return
	}

	err = h.parkingService.DeleteGate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy cổng để xóa"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa cổng", "details": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
