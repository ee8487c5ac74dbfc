package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/di"
	"github.com/mikey/llm-mail-router/internal/forwarder"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the Lambda handler
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the forwarder into the Lambda runtime
func run(logger *zap.Logger, fwd *forwarder.Forwarder) error {
	defer logger.Sync()

	logger.Info("Starting mail router")
	lambda.Start(fwd.HandleEvent)
	return nil
}
