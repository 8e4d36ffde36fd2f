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

type InvoiceHandler struct {
	parkingService *service.ParkingService
}

func NewInvoiceHandler(ps *service.ParkingService) *InvoiceHandler {
	return &InvoiceHandler{parkingService: ps}
}

// GET /invoices/:id
func (h *InvoiceHandler) GetInvoiceByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID hóa đơn không hợp lệ"})
		return
	}

	invoice, err := h.parkingService.GetInvoiceByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy hóa đơn"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy hóa đơn"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// GET /invoices?facilityId=&plate=
func (h *InvoiceHandler) FindInvoices(c *gin.Context) {
	var filter domain.InvoiceFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoices, err := h.parkingService.FindInvoices(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi tìm hóa đơn", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, invoices)
}
