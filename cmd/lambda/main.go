package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/bootstrap"
	"github.com/ieltsgenai/prep-api/internal/config"
	"github.com/ieltsgenai/prep-api/internal/lambdaapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().
		Str("service", cfg.AppName).
		Str("function", os.Getenv("AWS_LAMBDA_FUNCTION_NAME")).
		Logger()

	container, err := bootstrap.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialise services: %v", err)
	}
	defer container.Close()

	h := lambdaapi.NewHandler(container.Assessments, container.Rubrics, logger)
	lambda.Start(h.Handle)
}
