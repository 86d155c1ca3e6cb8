package main

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"apar/lib/api"
	"apar/lib/clients"
	"apar/lib/constants"
	"apar/lib/data"
	"apar/lib/util"
)

var (
	logger        *logrus.Logger
	isLocal       bool
	ssmRepository data.SSMRepository
	ssmParams     map[string]string
)

func handler(request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return preflight(api.Header(request, "origin"), ssmParams[constants.ALLOWED_ORIGINS]), nil
}

// preflight answers a CORS preflight for origin against a comma-separated allow list
func preflight(origin, allowed string) events.APIGatewayProxyResponse {
	if origin == "" {
		logger.Warn("origin is not present in the request headers")
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}
	}

	for _, allowedOrigin := range strings.Split(allowed, ",") {
		allowedOrigin = strings.TrimSpace(allowedOrigin)
		if allowedOrigin == "*" || allowedOrigin == origin {
			logger.WithField("origin", origin).Debug("Origin allowed")
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusOK,
				Headers: map[string]string{
					"Access-Control-Allow-Origin":      origin,
					"Access-Control-Allow-Headers":     "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token,X-Officer-Badge",
					"Access-Control-Allow-Methods":     "GET, PUT, DELETE, POST, OPTIONS",
					"Access-Control-Allow-Credentials": "true",
				},
			}
		}
	}

	logger.WithField("origin", origin).Warn("Unauthorized origin")
	return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}
}

func main() {
	lambda.Start(handler)
}

func init() {
	isLocal, _ = strconv.ParseBool(os.Getenv("IS_LOCAL"))
	if isLocal {
		_ = godotenv.Load()
	}

	logger = logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint: isLocal,
	})

	// Setup SSM client
	ssmClient := clients.NewSSMClient(isLocal)
	ssmRepository = &data.SSMDao{
		SSM:    ssmClient,
		Logger: logger,
	}

	// Get SSM parameters
	var err error
	ssmParams, err = ssmRepository.GetParameters()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Fatal("Error while getting ssm params from param store")
	}
}
