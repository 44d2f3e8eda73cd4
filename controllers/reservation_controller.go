package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostal-backend/services"
)

type ReservationController struct {
	ReservationSvc *services.ReservationService
	ReportSvc      *services.ReportService
}

func NewReservationController(rs *services.ReservationService, reports *services.ReportService) *ReservationController {
	return &ReservationController{ReservationSvc: rs, ReportSvc: reports}
}

// ----------------------------------------------------
// GET /api/reservations?from=YYYY-MM-DD&to=YYYY-MM-DD
// ----------------------------------------------------

func (ctrl *ReservationController) GetReservations(c *gin.Context) {
	list, err := ctrl.ReservationSvc.List(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ctrl *ReservationController) GetReservation(c *gin.Context) {
	r, err := ctrl.ReservationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ----------------------------------------------------
// POST /api/reservations
// ----------------------------------------------------

func (ctrl *ReservationController) CreateReservation(c *gin.Context) {
	var in services.CreateReservationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	r, err := ctrl.ReservationSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// ----------------------------------------------------
// PUT /api/reservations/:id
// ----------------------------------------------------

func (ctrl *ReservationController) UpdateReservation(c *gin.Context) {
	var in services.UpdateReservationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	r, err := ctrl.ReservationSvc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (ctrl *ReservationController) DeleteReservation(c *gin.Context) {
	if err := ctrl.ReservationSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ----------------------------------------------------
// PATCH /api/reservations/:id/extend
// ----------------------------------------------------

func (ctrl *ReservationController) ExtendReservation(c *gin.Context) {
	var in services.ExtendReservationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	r, err := ctrl.ReservationSvc.Extend(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Sweep runs the lifecycle sweep on demand, outside the scheduler's interval.
func (ctrl *ReservationController) Sweep(c *gin.Context) {
	res, err := ctrl.ReservationSvc.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ----------------------------------------------------
// Reports
// ----------------------------------------------------

func (ctrl *ReservationController) GuestsByCountry(c *gin.Context) {
	agg, err := ctrl.ReportSvc.GuestsByCountry(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (ctrl *ReservationController) GuestsGeo(c *gin.Context) {
	points, err := ctrl.ReportSvc.GuestsGeo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}
