package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"apar/lib/api"
	"apar/lib/clients"
	"apar/lib/data"
	"apar/lib/models"
	"apar/lib/service"
	"apar/lib/util"
)

// Global variables for Lambda cold start optimization
var (
	logger             *logrus.Logger
	isLocal            bool
	ssmRepository      data.SSMRepository
	ssmParams          map[string]string
	sqlDB              *sql.DB
	validate           *validator.Validate
	locationRepository data.LocationRepository
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"path":      request.Path,
	}).Info("Location management request received")

	segments := api.PathSegments(request.Path)
	if len(segments) < 2 || segments[0] != "locations" {
		return api.ErrorResponse(http.StatusNotFound, "Route not found", logger), nil
	}

	locationID, err := api.ParseID(segments[1])
	if err != nil {
		return api.ServiceErrorResponse(err, "LocationManagement", logger), nil
	}
	picRoute := len(segments) == 3 && segments[2] == "pic"

	switch request.HTTPMethod {
	case http.MethodGet:
		// GET /locations/{id}
		if len(segments) == 2 {
			return handleGetLocation(ctx, locationID), nil
		}

	case http.MethodPut:
		// PUT /locations/{id}/pic
		if picRoute {
			return handleAssignPIC(ctx, locationID, request), nil
		}

	case http.MethodDelete:
		if picRoute {
			// DELETE /locations/{id}/pic
			return handleUnlinkPIC(ctx, locationID), nil
		}
		if len(segments) == 2 {
			// DELETE /locations/{id}
			return handleDeleteLocation(ctx, locationID), nil
		}

	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}

	return api.ErrorResponse(http.StatusNotFound, "Route not found", logger), nil
}

// handleGetLocation handles GET /locations/{id}
func handleGetLocation(ctx context.Context, locationID int64) events.APIGatewayProxyResponse {
	location, err := locationRepository.GetLocationByID(ctx, locationID)
	if err != nil {
		return api.ServiceErrorResponse(err, "GetLocation", logger)
	}
	return api.SuccessResponse(http.StatusOK, location, logger)
}

// handleAssignPIC handles PUT /locations/{id}/pic
func handleAssignPIC(ctx context.Context, locationID int64, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var assignReq models.AssignPICRequest
	if err := api.ParseJSONBody(request, &assignReq); err != nil {
		return api.ServiceErrorResponse(err, "AssignPIC", logger)
	}
	if err := service.ValidateStruct(validate, &assignReq); err != nil {
		return api.ServiceErrorResponse(err, "AssignPIC", logger)
	}

	location, err := locationRepository.AssignPIC(ctx, locationID, assignReq.OfficerID)
	if err != nil {
		return api.ServiceErrorResponse(err, "AssignPIC", logger)
	}
	return api.SuccessResponse(http.StatusOK, location, logger)
}

// handleUnlinkPIC handles DELETE /locations/{id}/pic
func handleUnlinkPIC(ctx context.Context, locationID int64) events.APIGatewayProxyResponse {
	if err := locationRepository.UnlinkPIC(ctx, locationID); err != nil {
		return api.ServiceErrorResponse(err, "UnlinkPIC", logger)
	}
	return api.SuccessResponse(http.StatusNoContent, nil, logger)
}

// handleDeleteLocation handles DELETE /locations/{id}
func handleDeleteLocation(ctx context.Context, locationID int64) events.APIGatewayProxyResponse {
	if err := locationRepository.DeleteLocation(ctx, locationID); err != nil {
		return api.ServiceErrorResponse(err, "DeleteLocation", logger)
	}
	return api.SuccessResponse(http.StatusNoContent, nil, logger)
}

// main is the Lambda function entry point
func main() {
	lambda.Start(Handler)
}

func init() {
	var err error

	isLocal = parseIsLocal()

	// Logger Setup
	logger = setupLogger(isLocal)

	// Initialize AWS SSM Parameter Store client
	ssmClient := clients.NewSSMClient(isLocal)
	ssmRepository = &data.SSMDao{
		SSM:    ssmClient,
		Logger: logger,
	}

	// Retrieve all required configuration parameters from SSM
	ssmParams, err = ssmRepository.GetParameters()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error while getting SSM params from parameter store")
	}

	// Initialize PostgreSQL database connection
	err = setupPostgresSQLClient(ssmParams)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error setting up PostgreSQL client")
	}

	validate = service.NewValidator()

	logger.WithField("operation", "init").Info("Location Management Lambda initialization completed successfully")
}

func parseIsLocal() bool {
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	if isLocal {
		_ = godotenv.Load()
	}
	return isLocal
}

func setupLogger(isLocal bool) *logrus.Logger {
	logger := logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})
	return logger
}

func setupPostgresSQLClient(ssmParams map[string]string) error {
	var err error

	sqlDB, err = clients.NewPostgresSQLClient(ssmParams)
	if err != nil {
		return fmt.Errorf("error creating PostgreSQL client: %w", err)
	}

	locationRepository = &data.LocationDao{
		DB:     sqlDB,
		Logger: logger,
	}
	return nil
}
