package handler

import (
	"errors"
	"net/http"

	"parking_facility/internal/domain"
	"parking_facility/internal/repository"
	"parking_facility/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type IoTCommandHandler struct {
	iotService     *service.IoTService
	parkingService *service.ParkingService
}

func NewIoTCommandHandler(is *service.IoTService, ps *service.ParkingService) *IoTCommandHandler {
	return &IoTCommandHandler{iotService: is, parkingService: ps}
}

// POST /iot/commands/barrier — đóng/mở rào chắn của một cổng thủ công.
func (h *IoTCommandHandler) ControlBarrier(c *gin.Context) {
	var req domain.BarrierControlDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gate, err := h.parkingService.GetGateByID(c.Request.Context(), req.GateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy cổng"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi kiểm tra cổng"})
		return
	}
	if gate.Esp32ThingName == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Cổng chưa được gán thiết bị điều khiển rào chắn"})
		return
	}

	requestID := uuid.New().String()
	err = h.iotService.SendBarrierControlCommand(c.Request.Context(), gate.Esp32ThingName, req.Command, requestID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể gửi lệnh điều khiển rào chắn", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lệnh điều khiển rào chắn đã được gửi", "request_id": requestID})
}
