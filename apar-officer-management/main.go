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
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"apar/lib/api"
	"apar/lib/clients"
	"apar/lib/data"
	"apar/lib/service"
	"apar/lib/util"
)

// Global variables for Lambda cold start optimization
var (
	logger            *logrus.Logger
	isLocal           bool
	ssmRepository     data.SSMRepository
	ssmParams         map[string]string
	sqlDB             *sql.DB
	officerRepository data.OfficerRepository
	equipmentService  *service.EquipmentService
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"path":      request.Path,
	}).Info("Officer management request received")

	segments := api.PathSegments(request.Path)
	if len(segments) < 2 || segments[0] != "officers" {
		return api.ErrorResponse(http.StatusNotFound, "Route not found", logger), nil
	}

	switch request.HTTPMethod {
	case http.MethodGet:
		if len(segments) == 3 {
			switch segments[2] {
			case "scope":
				// GET /officers/{badge}/scope
				return handleGetScope(ctx, segments[1]), nil
			case "mode":
				// GET /officers/{badge}/mode
				return handleGetAccessMode(ctx, segments[1]), nil
			}
		}

	case http.MethodDelete:
		// DELETE /officers/{id}
		if len(segments) == 2 {
			officerID, err := api.ParseID(segments[1])
			if err != nil {
				return api.ServiceErrorResponse(err, "DeleteOfficer", logger), nil
			}
			return handleDeleteOfficer(ctx, officerID), nil
		}

	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}

	return api.ErrorResponse(http.StatusNotFound, "Route not found", logger), nil
}

// handleGetScope handles GET /officers/{badge}/scope
func handleGetScope(ctx context.Context, badge string) events.APIGatewayProxyResponse {
	_, scope, err := equipmentService.Scope(ctx, badge)
	if err != nil {
		return api.ServiceErrorResponse(err, "GetAccessScope", logger)
	}
	return api.SuccessResponse(http.StatusOK, scope, logger)
}

// handleGetAccessMode handles GET /officers/{badge}/mode
func handleGetAccessMode(ctx context.Context, badge string) events.APIGatewayProxyResponse {
	mode, err := equipmentService.AccessMode(ctx, badge)
	if err != nil {
		return api.ServiceErrorResponse(err, "GetAccessMode", logger)
	}
	return api.SuccessResponse(http.StatusOK, mode, logger)
}

// handleDeleteOfficer handles DELETE /officers/{id}
func handleDeleteOfficer(ctx context.Context, officerID int64) events.APIGatewayProxyResponse {
	if err := officerRepository.DeleteOfficer(ctx, officerID); err != nil {
		return api.ServiceErrorResponse(err, "DeleteOfficer", logger)
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

	logger.WithField("operation", "init").Info("Officer Management Lambda initialization completed successfully")
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

	officerRepository = &data.OfficerDao{DB: sqlDB, Logger: logger}
	equipmentService = &service.EquipmentService{
		Officers: officerRepository,
		Logger:   logger,
	}
	return nil
}
