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
	"apar/lib/storage"
	"apar/lib/util"
)

// Global variables for Lambda cold start optimization
var (
	logger            *logrus.Logger
	isLocal           bool
	ssmRepository     data.SSMRepository
	ssmParams         map[string]string
	sqlDB             *sql.DB
	inspectionService *service.InspectionService
	equipmentService  *service.EquipmentService
)

func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "Handler",
		"method":    request.HTTPMethod,
		"path":      request.Path,
	}).Info("Inspection management request received")

	segments := api.PathSegments(request.Path)

	switch request.HTTPMethod {
	case http.MethodPost:
		// POST /inspections
		if len(segments) == 1 && segments[0] == "inspections" {
			return handleSubmitInspection(ctx, request), nil
		}

	case http.MethodGet:
		// GET /equipment/{id}/inspections
		if len(segments) == 3 && segments[0] == "equipment" && segments[2] == "inspections" {
			equipmentID, err := api.ParseID(segments[1])
			if err != nil {
				return api.ServiceErrorResponse(err, "GetInspectionHistory", logger), nil
			}
			return handleGetHistory(ctx, equipmentID), nil
		}

		if len(segments) == 2 && segments[0] == "inspections" {
			switch segments[1] {
			case "upcoming":
				return handleListUpcoming(ctx, request), nil
			case "due":
				return handleListDueInDays(ctx, request), nil
			case "status":
				return handleStatusBatch(ctx, request), nil
			default:
				inspectionID, err := api.ParseID(segments[1])
				if err != nil {
					return api.ServiceErrorResponse(err, "GetInspectionDetail", logger), nil
				}
				return handleGetDetail(ctx, inspectionID), nil
			}
		}

	case http.MethodDelete:
		// DELETE /inspections/{id}
		if len(segments) == 2 && segments[0] == "inspections" {
			inspectionID, err := api.ParseID(segments[1])
			if err != nil {
				return api.ServiceErrorResponse(err, "DeleteInspection", logger), nil
			}
			return handleDeleteInspection(ctx, inspectionID), nil
		}

	default:
		return api.ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed", logger), nil
	}

	return api.ErrorResponse(http.StatusNotFound, "Route not found", logger), nil
}

// handleSubmitInspection handles POST /inspections
func handleSubmitInspection(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	req, err := api.DecodeSubmission(request)
	if err != nil {
		return api.ServiceErrorResponse(err, "SubmitInspection", logger)
	}
	if req.OfficerBadge == "" {
		req.OfficerBadge = auth.BadgeFromRequest(request)
	}

	result, err := inspectionService.Submit(ctx, req)
	if err != nil {
		return api.ServiceErrorResponse(err, "SubmitInspection", logger)
	}
	return api.SuccessResponse(http.StatusCreated, result, logger)
}

// handleGetHistory handles GET /equipment/{id}/inspections
func handleGetHistory(ctx context.Context, equipmentID int64) events.APIGatewayProxyResponse {
	records, err := inspectionService.History(ctx, equipmentID)
	if err != nil {
		return api.ServiceErrorResponse(err, "GetInspectionHistory", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]interface{}{
		"inspections": records,
		"total":       len(records),
	}, logger)
}

// handleGetDetail handles GET /inspections/{id}
func handleGetDetail(ctx context.Context, inspectionID int64) events.APIGatewayProxyResponse {
	detail, err := inspectionService.Detail(ctx, inspectionID)
	if err != nil {
		return api.ServiceErrorResponse(err, "GetInspectionDetail", logger)
	}
	return api.SuccessResponse(http.StatusOK, detail, logger)
}

// handleDeleteInspection handles DELETE /inspections/{id}
func handleDeleteInspection(ctx context.Context, inspectionID int64) events.APIGatewayProxyResponse {
	if err := inspectionService.Delete(ctx, inspectionID); err != nil {
		return api.ServiceErrorResponse(err, "DeleteInspection", logger)
	}
	return api.SuccessResponse(http.StatusNoContent, nil, logger)
}

// handleListUpcoming handles GET /inspections/upcoming
func handleListUpcoming(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	query := request.QueryStringParameters
	filter := models.UpcomingFilter{Badge: auth.BadgeFromRequest(request)}

	if v := query["within_days"]; v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return api.ValidationErrorResponse("Validation failed", map[string]string{"within_days": "integer"}, logger)
		}
		filter.WithinDays = days
	}
	if v := query["location_id"]; v != "" {
		id, err := api.ParseID(v)
		if err != nil {
			return api.ValidationErrorResponse("Validation failed", map[string]string{"location_id": "positive_integer"}, logger)
		}
		filter.LocationID = &id
	}
	if v := query["type_id"]; v != "" {
		id, err := api.ParseID(v)
		if err != nil {
			return api.ValidationErrorResponse("Validation failed", map[string]string{"type_id": "positive_integer"}, logger)
		}
		filter.TypeID = &id
	}

	rows, err := equipmentService.ListUpcoming(ctx, filter)
	if err != nil {
		return api.ServiceErrorResponse(err, "ListUpcoming", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]interface{}{
		"equipment": rows,
		"total":     len(rows),
	}, logger)
}

// handleListDueInDays handles GET /inspections/due?days=N
func handleListDueInDays(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	days := 0
	if v := request.QueryStringParameters["days"]; v != "" {
		var err error
		if days, err = strconv.Atoi(v); err != nil {
			return api.ValidationErrorResponse("Validation failed", map[string]string{"days": "integer"}, logger)
		}
	}

	rows, err := equipmentService.ListDueInDays(ctx, days)
	if err != nil {
		return api.ServiceErrorResponse(err, "ListDueInDays", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]interface{}{
		"days":      days,
		"equipment": rows,
		"total":     len(rows),
	}, logger)
}

// handleStatusBatch handles GET /inspections/status?ids=1,2
func handleStatusBatch(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	ids, err := api.ParseIDList(request.QueryStringParameters["ids"])
	if err != nil {
		return api.ServiceErrorResponse(err, "StatusBatch", logger)
	}

	rows, err := equipmentService.StatusBatch(ctx, ids)
	if err != nil {
		return api.ServiceErrorResponse(err, "StatusBatch", logger)
	}
	return api.SuccessResponse(http.StatusOK, map[string]interface{}{
		"equipment": rows,
		"total":     len(rows),
	}, logger)
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

	logger.WithFields(logrus.Fields{
		"operation":    "init",
		"params_count": len(ssmParams),
	}).Debug("Retrieved SSM parameters")

	// Initialize PostgreSQL database connection
	err = setupPostgresSQLClient(ssmParams)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error setting up PostgreSQL client")
	}

	setupServices(ssmParams)

	logger.WithField("operation", "init").Info("Inspection Management Lambda initialization completed successfully")
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

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.WithField("operation", "setupPostgresSQLClient").Debug("PostgreSQL client initialized successfully")
	}
	return nil
}

func setupPhotoStore(ssmParams map[string]string) storage.PhotoStore {
	if isLocal {
		return &storage.DiskPhotoStore{
			Dir:    util.ParamString(ssmParams, constants.PHOTO_STORAGE_DIR, os.TempDir()),
			Logger: logger,
		}
	}
	return &storage.S3PhotoStore{
		Client: clients.NewS3Client(isLocal, ssmParams[constants.PHOTO_BUCKET]),
		Logger: logger,
	}
}

func setupServices(ssmParams map[string]string) {
	due := compliance.NewDueCalculator(
		util.ParamInt(ssmParams, constants.DUE_SOON_WINDOW_DAYS, compliance.DefaultWarningWindowDays),
		util.ParamLocation(ssmParams, constants.TIMEZONE),
	)
	validate := service.NewValidator()

	equipmentRepository := &data.EquipmentDao{DB: sqlDB, Logger: logger}
	officerRepository := &data.OfficerDao{DB: sqlDB, Logger: logger}
	checklists := service.NewChecklistCatalog(equipmentRepository, 5*time.Minute)

	inspectionService = &service.InspectionService{
		Tx:          &data.TxRunner{DB: sqlDB, Logger: logger},
		Inspections: &data.InspectionDao{DB: sqlDB, Logger: logger},
		Equipment:   equipmentRepository,
		Officers:    officerRepository,
		Intervals:   &data.IntervalDao{DB: sqlDB, Logger: logger},
		Checklists:  checklists,
		Photos:      setupPhotoStore(ssmParams),
		Due:         due,
		Validate:    validate,
		Logger:      logger,
	}

	equipmentService = &service.EquipmentService{
		Equipment:  equipmentRepository,
		Officers:   officerRepository,
		Checklists: checklists,
		Due:        due,
		Validate:   validate,
		Logger:     logger,
	}
}
