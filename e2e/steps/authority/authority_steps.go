package authority

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	DELETE(path string) error
}

// RegisterSteps registers minter-administration step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authoritySteps{tc: tc}

	ctx.Step(`^I grant minter authority to "([^"]*)"$`, steps.grantMinter)
	ctx.Step(`^I revoke minter authority from "([^"]*)"$`, steps.revokeMinter)
	ctx.Step(`^I list the minters$`, steps.listMinters)
}

type authoritySteps struct {
	tc TestContext
}

func (s *authoritySteps) grantMinter(ctx context.Context, account string) error {
	return s.tc.POST("/admin/minters", map[string]interface{}{"account": account})
}

func (s *authoritySteps) revokeMinter(ctx context.Context, account string) error {
	return s.tc.DELETE("/admin/minters/" + account)
}

func (s *authoritySteps) listMinters(ctx context.Context) error {
	return s.tc.GET("/admin/minters")
}
