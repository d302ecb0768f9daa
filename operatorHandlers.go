package main

import (
	"errors"
	"net/http"

	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func writeOperatorError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
	case errors.Is(err, models.ErrDuplicateOperatorCode):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrOperatorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *server) listOperatorsHandler(c *gin.Context) {
	operators, err := models.ListOperators(c.Request.Context(), s.db)
	if err != nil {
		writeOperatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, operators)
}

func (s *server) createOperatorHandler(c *gin.Context) {
	var input models.NewOperator
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	op, err := models.CreateOperator(c.Request.Context(), s.db, &input)
	if err != nil {
		writeOperatorError(c, err)
		return
	}
	c.JSON(http.StatusCreated, op)
}

func (s *server) updateOperatorHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var input models.NewOperator
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	op, err := models.UpdateOperator(c.Request.Context(), s.db, id, &input)
	if err != nil {
		writeOperatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

func (s *server) deleteOperatorHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := models.DeleteOperator(c.Request.Context(), s.db, id); err != nil {
		writeOperatorError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
