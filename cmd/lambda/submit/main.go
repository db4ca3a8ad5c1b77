// Submit Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"loan-application-engine/internal/config"
	"loan-application-engine/internal/handlers"
	"loan-application-engine/internal/utils"
)

func main() {
	cfg, _ := config.Load()
	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	deps, err := handlers.NewDependencies(context.Background(), cfg, utils.Logger)
	if err != nil {
		utils.Logger.Fatal("Failed to create handler", zap.Error(err))
	}
	defer deps.Close()

	lambda.Start(handlers.NewSubmitHandler(deps.Pipeline, utils.Logger).Handle)
}
