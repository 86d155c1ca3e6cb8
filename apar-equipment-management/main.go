package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"apar/lib/api"
	"apar/lib/auth"
	"apar/lib/clients"
	"apar/lib/compliance"
	"apar/lib/constants"
	"apar/lib/data"
	"apar/lib/models"
	"apar/lib/service"
	"apar/lib/util"
)

// Global variables for Lambda cold start optimization
var (
	logger           *logrus.Logger
	isLocal          bool
	ssmRepository    data.SSMRepository
	ssmParams        map[string]string
	sqlDB            *sql.DB
	equipmentService *service.EquipmentService
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"path":      request.Path,
	}).Info("Equipment management request received")

	segments := api.PathSegments(request.Path)

	switch request.HTTPMethod {
	case http.MethodPost:
		// POST /equipment
		if len(segments) == 1 && segments[0] == "equipment" {
			return handleCreateEquipment(ctx, request), nil
		}

	case http.MethodGet:
		switch {
		case len(segments) == 3 && segments[0] == "officers" && segments[2] == "equipment":
			// GET /officers/{badge}/equipment
			return handleListForOfficer(ctx, segments[1]), nil

		case len(segments) == 3 && segments[0] == "equipment" && segments[1] == "by-token":
			// GET /equipment/by-token/{token}
			return handleGetEquipment(ctx, models.EquipmentKey{Token: segments[2]}, auth.BadgeFromRequest(request)), nil

		case len(segments) == 3 && segments[0] == "equipment" && segments[2] == "qr":
			// GET /equipment/{id}/qr
			equipmentID, err := api.ParseID(segments[1])
			if err != nil {
				return api.ServiceErrorResponse(err, "GetQRInfo", logger), nil
			}
			return handleGetQRInfo(ctx, equipmentID), nil

		case len(segments) == 2 && segments[0] == "equipment":
			// GET /equipment/{id}
			equipmentID, err := api.ParseID(segments[1])
			if err != nil {
				return api.ServiceErrorResponse(err, "GetEquipment", logger), nil
			}
			return handleGetEquipment(ctx, models.EquipmentKey{ID: equipmentID}, auth.BadgeFromRequest(request)), nil
		}

	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}

	return api.ErrorResponse(http.StatusNotFound, "Route not found", logger), nil
}

// handleGetEquipment handles GET /equipment/{id} and GET /equipment/by-token/{token}
func handleGetEquipment(ctx context.Context, key models.EquipmentKey, badge string) events.APIGatewayProxyResponse {
	view, err := equipmentService.GetDetail(ctx, key, badge)
	if err != nil {
		return api.ServiceErrorResponse(err, "GetEquipment", logger)
	}
	return api.SuccessResponse(http.StatusOK, view, logger)
}

// handleListForOfficer handles GET /officers/{badge}/equipment
func handleListForOfficer(ctx context.Context, badge string) events.APIGatewayProxyResponse {
	views, err := equipmentService.ListForOfficer(ctx, badge)
	if err != nil {
		return api.ServiceErrorResponse(err, "ListEquipmentForOfficer", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]interface{}{
		"badge":     badge,
		"equipment": views,
		"total":     len(views),
	}, logger)
}

// handleCreateEquipment handles POST /equipment
func handleCreateEquipment(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var createReq models.CreateEquipmentRequest
	if err := api.ParseJSONBody(request, &createReq); err != nil {
		return api.ServiceErrorResponse(err, "CreateEquipment", logger)
	}

	created, err := equipmentService.Create(ctx, &createReq)
	if err != nil {
		return api.ServiceErrorResponse(err, "CreateEquipment", logger)
	}

	logger.WithFields(logrus.Fields{
		"equipment_id": created.ID,
		"code":         created.Code,
	}).Info("Successfully registered equipment")
	return api.SuccessResponse(http.StatusCreated, created, logger)
}

// handleGetQRInfo handles GET /equipment/{id}/qr
func handleGetQRInfo(ctx context.Context, equipmentID int64) events.APIGatewayProxyResponse {
	info, err := equipmentService.QRInfo(ctx, equipmentID)
	if err != nil {
		return api.ServiceErrorResponse(err, "GetQRInfo", logger)
	}
	return api.SuccessResponse(http.StatusOK, info, logger)
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

	logger.WithField("operation", "init").Info("Equipment Management Lambda initialization completed successfully")
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

	equipmentRepository := &data.EquipmentDao{DB: sqlDB, Logger: logger}
	equipmentService = &service.EquipmentService{
		Equipment:  equipmentRepository,
		Officers:   &data.OfficerDao{DB: sqlDB, Logger: logger},
		Checklists: service.NewChecklistCatalog(equipmentRepository, 5*time.Minute),
		Due: compliance.NewDueCalculator(
			util.ParamInt(ssmParams, constants.DUE_SOON_WINDOW_DAYS, compliance.DefaultWarningWindowDays),
			util.ParamLocation(ssmParams, constants.TIMEZONE),
		),
		Validate:     service.NewValidator(),
		QRServiceURL: util.ParamString(ssmParams, constants.QR_SERVICE_URL, constants.DEFAULT_QR_SERVICE_URL),
		Logger:       logger,
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.WithField("operation", "setupPostgresSQLClient").Debug("PostgreSQL client initialized successfully")
	}
	return nil
}
