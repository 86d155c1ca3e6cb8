package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"apar/lib/models"
)

func responseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token,X-Officer-Badge",
		"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
	}
}

// SuccessResponse creates a successful API Gateway response
func SuccessResponse(statusCode int, data interface{}, logger *logrus.Logger) events.APIGatewayProxyResponse {
	if statusCode == http.StatusNoContent {
		return events.APIGatewayProxyResponse{StatusCode: statusCode, Headers: responseHeaders()}
	}

	body, err := json.Marshal(data)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal response data")
		return ErrorResponse(http.StatusInternalServerError, "Internal server error", logger)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    responseHeaders(),
	}
}

// ErrorResponse creates an error API Gateway response
func ErrorResponse(statusCode int, message string, logger *logrus.Logger) events.APIGatewayProxyResponse {
	errorData := map[string]interface{}{
		"error":   true,
		"message": message,
		"status":  statusCode,
	}

	body, err := json.Marshal(errorData)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal error response")
		body = []byte(`{"error":true,"message":"Internal server error","status":500}`)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    responseHeaders(),
	}
}

// ValidationErrorResponse creates a validation error response
func ValidationErrorResponse(message string, fields map[string]string, logger *logrus.Logger) events.APIGatewayProxyResponse {
	validation := make([]string, 0, len(fields))
	for field, rule := range fields {
		validation = append(validation, field+": "+rule)
	}
	sort.Strings(validation)

	errorData := map[string]interface{}{
		"error":      true,
		"message":    message,
		"status":     http.StatusBadRequest,
		"validation": validation,
		"fields":     fields,
	}

	body, err := json.Marshal(errorData)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal validation error response")
		return ErrorResponse(http.StatusInternalServerError, "Internal server error", logger)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusBadRequest,
		Body:       string(body),
		Headers:    responseHeaders(),
	}
}

// StatusFromError maps a domain error to its HTTP status
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrOfficerNotFound),
		errors.Is(err, models.ErrEquipmentNotFound),
		errors.Is(err, models.ErrInspectionNotFound),
		errors.Is(err, models.ErrLocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ServiceErrorResponse renders an error returned by a service. Server-side
// failures are logged and hidden behind a generic message.
func ServiceErrorResponse(err error, operation string, logger *logrus.Logger) events.APIGatewayProxyResponse {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		logger.WithFields(logrus.Fields{
			"operation": operation,
			"fields":    validationErr.Fields,
		}).Info("Request failed validation")
		return ValidationErrorResponse("Validation failed", validationErr.Fields, logger)
	}

	status := StatusFromError(err)
	if status == http.StatusInternalServerError {
		logger.WithFields(logrus.Fields{
			"operation": operation,
			"error":     err.Error(),
		}).Error("Request failed")
		return ErrorResponse(status, "Internal server error", logger)
	}

	logger.WithFields(logrus.Fields{
		"operation": operation,
		"error":     err.Error(),
	}).Info("Request rejected")
	return ErrorResponse(status, err.Error(), logger)
}
