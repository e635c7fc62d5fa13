package registry

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	SaveVar(name, value string)
	GetVar(name string) (string, error)
}

// RegisterSteps registers identity-registry step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc}

	ctx.Step(`^I mint an identity for owner "([^"]*)" with fingerprint "([^"]*)" and applicant "([^"]*)"$`, steps.mintIdentity)
	ctx.Step(`^I save the minted token id as "([^"]*)"$`, steps.saveMintedTokenID)
	ctx.Step(`^I look up the fingerprint "([^"]*)"$`, steps.lookupFingerprint)
	ctx.Step(`^I validate ownership of fingerprint "([^"]*)" for owner "([^"]*)"$`, steps.validateOwnership)
	ctx.Step(`^I fetch the identity saved as "([^"]*)"$`, steps.fetchSavedIdentity)
	ctx.Step(`^I deactivate the identity saved as "([^"]*)"$`, steps.deactivateSavedIdentity)
	ctx.Step(`^I reissue the identity saved as "([^"]*)" to owner "([^"]*)" with applicant "([^"]*)"$`, steps.reissueSavedIdentity)
	ctx.Step(`^I fetch the audit trail for owner "([^"]*)"$`, steps.fetchAuditTrail)
}

type registrySteps struct {
	tc TestContext
}

func (s *registrySteps) mintIdentity(ctx context.Context, owner, bioHash, applicantID string) error {
	body := map[string]interface{}{
		"owner":           owner,
		"name":            "Test Subject",
		"document_number": "DOC-" + applicantID,
		"bio_hash":        bioHash,
		"applicant_id":    applicantID,
	}
	return s.tc.POST("/registry/mint", body)
}

func (s *registrySteps) saveMintedTokenID(ctx context.Context, name string) error {
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	number, ok := id.(float64)
	if !ok {
		return fmt.Errorf("token id is not numeric: %v", id)
	}
	s.tc.SaveVar(name, fmt.Sprintf("%d", uint64(number)))
	return nil
}

func (s *registrySteps) lookupFingerprint(ctx context.Context, bioHash string) error {
	return s.tc.GET("/registry/fingerprint/" + bioHash)
}

func (s *registrySteps) validateOwnership(ctx context.Context, bioHash, owner string) error {
	body := map[string]interface{}{
		"owner":    owner,
		"bio_hash": bioHash,
	}
	return s.tc.POST("/registry/validate", body)
}

func (s *registrySteps) fetchSavedIdentity(ctx context.Context, name string) error {
	id, err := s.tc.GetVar(name)
	if err != nil {
		return err
	}
	return s.tc.GET("/registry/identities/" + id)
}

func (s *registrySteps) deactivateSavedIdentity(ctx context.Context, name string) error {
	id, err := s.tc.GetVar(name)
	if err != nil {
		return err
	}
	return s.tc.POST("/registry/identities/"+id+"/deactivate", nil)
}

func (s *registrySteps) reissueSavedIdentity(ctx context.Context, name, owner, applicantID string) error {
	id, err := s.tc.GetVar(name)
	if err != nil {
		return err
	}
	var previousID uint64
	if _, err := fmt.Sscanf(id, "%d", &previousID); err != nil {
		return fmt.Errorf("saved token id %q is not numeric: %w", id, err)
	}
	body := map[string]interface{}{
		"previous_id":  previousID,
		"owner":        owner,
		"applicant_id": applicantID,
	}
	return s.tc.POST("/registry/reissue", body)
}

func (s *registrySteps) fetchAuditTrail(ctx context.Context, owner string) error {
	return s.tc.GET("/registry/owners/" + owner + "/audit")
}
