package e2e

import (
	"github.com/cucumber/godog"

	"blocktrust/e2e/steps/authority"
	"blocktrust/e2e/steps/common"
	"blocktrust/e2e/steps/registry"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (authentication, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register identity registry steps
	registry.RegisterSteps(ctx, tc)

	// Register minter administration steps
	authority.RegisterSteps(ctx, tc)
}
