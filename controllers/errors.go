package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostal-backend/services"
	"hostal-backend/utils"
)

// respondError maps service errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	if ve := services.IsValidationError(err); ve != nil {
		utils.JSONError(c, http.StatusBadRequest, ve.Message)
		return
	}
	if nf := services.IsNotFoundError(err); nf != nil {
		utils.JSONError(c, http.StatusNotFound, nf.Error())
		return
	}
	if ce := services.IsConflictError(err); ce != nil {
		utils.JSONError(c, http.StatusConflict, ce.Message)
		return
	}
	if ue := services.IsUpstreamError(err); ue != nil {
		code := http.StatusBadGateway
		if ue.Timeout {
			code = http.StatusGatewayTimeout
		}
		log.Printf("❌ upstream %s: %v", ue.Provider, ue.Err)
		utils.JSONError(c, code, ue.Error())
		return
	}

	log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	utils.JSONError(c, http.StatusInternalServerError, "Error interno del servidor")
}

// respondBindError answers 400 with the first failing field when the body
// broke a binding rule, and a generic message for malformed JSON.
func respondBindError(c *gin.Context, err error) {
	log.Printf("❌ JSON BINDING ERROR (400): %v", err)
	if ve := services.IsValidationError(services.BindingError(err)); ve != nil {
		utils.JSONError(c, http.StatusBadRequest, ve.Message)
		return
	}
	utils.JSONError(c, http.StatusBadRequest, "Invalid request payload")
}
