package handlers

import (
	"errors"
	"net/http"
	"strconv"

	inquiryRepo "asterias/database/repository/inquiry"
	"asterias/middleware"
	"asterias/models"
	"asterias/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Admin JSON API. The backend client invalidates the cache on every
// successful mutation.

func (h *AdminHandler) APIDashboard(c *gin.Context) {
	stats, err := h.backend.Dashboard(c.Request.Context())
	if err != nil {
		backendError(c, err)
		return
	}
	h.localCounters(c, stats)
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListRooms(c *gin.Context) {
	rooms, err := h.backend.ListRooms(c.Request.Context())
	if err != nil {
		backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rooms})
}

func (h *AdminHandler) CreateRoom(c *gin.Context) {
	var in models.RoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	room, err := h.backend.CreateRoom(c.Request.Context(), in)
	if err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "room created", room.ID)
	c.JSON(http.StatusCreated, room)
}

func (h *AdminHandler) UpdateRoom(c *gin.Context) {
	var in models.RoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	room, err := h.backend.UpdateRoom(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "room updated", room.ID)
	c.JSON(http.StatusOK, room)
}

func (h *AdminHandler) DeleteRoom(c *gin.Context) {
	if err := h.backend.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "room deleted", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) ListOffers(c *gin.Context) {
	offers, err := h.backend.ListOffers(c.Request.Context())
	if err != nil {
		backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": offers})
}

func (h *AdminHandler) CreateOffer(c *gin.Context) {
	var in models.OfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	if in.ValidTo < in.ValidFrom {
		utils.FieldError(c, "validTo", "must not be before validFrom")
		return
	}
	offer, err := h.backend.CreateOffer(c.Request.Context(), in)
	if err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "offer created", offer.ID)
	c.JSON(http.StatusCreated, offer)
}

func (h *AdminHandler) UpdateOffer(c *gin.Context) {
	var in models.OfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	if in.ValidTo < in.ValidFrom {
		utils.FieldError(c, "validTo", "must not be before validFrom")
		return
	}
	offer, err := h.backend.UpdateOffer(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "offer updated", offer.ID)
	c.JSON(http.StatusOK, offer)
}

func (h *AdminHandler) DeleteOffer(c *gin.Context) {
	if err := h.backend.DeleteOffer(c.Request.Context(), c.Param("id")); err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "offer deleted", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) ListGuests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	guests, err := h.backend.ListGuests(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, guests)
}

func (h *AdminHandler) GetGuest(c *gin.Context) {
	guest, err := h.backend.GetGuest(c.Request.Context(), c.Param("id"))
	if err != nil {
		backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, guest)
}

func (h *AdminHandler) CreateGuest(c *gin.Context) {
	var in models.GuestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	guest, err := h.backend.CreateGuest(c.Request.Context(), in)
	if err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "guest created", guest.ID)
	c.JSON(http.StatusCreated, guest)
}

func (h *AdminHandler) UpdateGuest(c *gin.Context) {
	var in models.GuestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	guest, err := h.backend.UpdateGuest(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "guest updated", guest.ID)
	c.JSON(http.StatusOK, guest)
}

func (h *AdminHandler) DeleteGuest(c *gin.Context) {
	if err := h.backend.DeleteGuest(c.Request.Context(), c.Param("id")); err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "guest deleted", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) ListGallery(c *gin.Context) {
	images, err := h.backend.ListGallery(c.Request.Context())
	if err != nil {
		backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": images})
}

func (h *AdminHandler) AddGalleryImage(c *gin.Context) {
	var in models.GalleryImageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	img, err := h.backend.AddGalleryImage(c.Request.Context(), in)
	if err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "gallery image added", img.ID)
	c.JSON(http.StatusCreated, img)
}

func (h *AdminHandler) DeleteGalleryImage(c *gin.Context) {
	if err := h.backend.DeleteGalleryImage(c.Request.Context(), c.Param("id")); err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "gallery image deleted", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, err := h.backend.ListBookings(c.Request.Context(), bookingFilter(c))
	if err != nil {
		backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) GetBooking(c *gin.Context) {
	b, err := h.backend.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	var in models.StatusUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	if !in.Status.Valid() {
		utils.FieldError(c, "status", "unknown booking status")
		return
	}
	b, err := h.backend.UpdateBookingStatus(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		backendError(c, err)
		return
	}
	h.audit(c, "booking status changed", b.ID, zap.String("status", string(in.Status)))
	c.JSON(http.StatusOK, b)
}

func (h *AdminHandler) ListInquiries(c *gin.Context) {
	status := models.InquiryStatus(c.Query("status"))
	if status != "" && status != models.InquiryNew && status != models.InquiryAnswered {
		utils.FieldError(c, "status", "unknown inquiry status")
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	items, err := h.inquiries.List(c.Request.Context(), status, limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list inquiries", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *AdminHandler) AnswerInquiry(c *gin.Context) {
	if err := h.inquiries.MarkAnswered(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, inquiryRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Inquiry not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Failed to update inquiry", err.Error())
		return
	}
	h.audit(c, "inquiry answered", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": models.InquiryAnswered})
}

func (h *AdminHandler) audit(c *gin.Context, what, id string, extra ...zap.Field) {
	fields := append([]zap.Field{zap.String("id", id)}, extra...)
	if v, ok := c.Get(middleware.AdminClaimsKey); ok {
		if claims, ok := v.(*utils.TokenClaims); ok {
			fields = append(fields, zap.String("admin", claims.Email))
		}
	}
	utils.LoggerFrom(c).Info("Admin "+what, fields...)
}
