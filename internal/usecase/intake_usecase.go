package usecase

import (
	"context"

	"careplan-service/internal/delivery/dto"
	"careplan-service/internal/intake"
	"careplan-service/internal/service"

	"github.com/sirupsen/logrus"
)

// IntakeUsecase turns a raw partner payload into a submitted care plan.
type IntakeUsecase interface {
	Receive(ctx context.Context, req *dto.IntakeRequest) (*dto.SubmitResponse, error)
}

type intakeUsecase struct {
	log          *logrus.Logger
	registry     *intake.Registry
	carePlanUC   CarePlanUsecase
	auditService service.AuditService
}

func NewIntakeUsecase(
	log *logrus.Logger,
	registry *intake.Registry,
	carePlanUC CarePlanUsecase,
	auditService service.AuditService,
) IntakeUsecase {
	return &intakeUsecase{
		log:          log,
		registry:     registry,
		carePlanUC:   carePlanUC,
		auditService: auditService,
	}
}

// Receive selects the adapter for req.Source, normalizes the payload and
// submits it. Transport flags are OR-ed into the payload's own flags. Every
// outcome is written to the audit trail.
func (u *intakeUsecase) Receive(ctx context.Context, req *dto.IntakeRequest) (*dto.SubmitResponse, error) {
	adapter, err := u.registry.Get(req.Source)
	if err != nil {
		u.audit(ctx, req, nil, err)
		return nil, err
	}

	order, err := intake.Process(adapter, req.Raw, req.SourceHint)
	if err != nil {
		u.audit(ctx, req, nil, err)
		return nil, err
	}

	if req.Confirm {
		order.Flags.Confirm = true
	}
	if req.BackendHint != "" {
		order.Flags.BackendHint = req.BackendHint
	}

	resp, err := u.carePlanUC.Submit(ctx, order)
	u.audit(ctx, req, resp, err)
	return resp, err
}

// audit failures never fail the submission.
func (u *intakeUsecase) audit(ctx context.Context, req *dto.IntakeRequest, resp *dto.SubmitResponse, cause error) {
	source := req.SourceHint
	if source == "" {
		source = req.Source
	}

	var err error
	if cause != nil {
		err = u.auditService.LogIntakeRejected(ctx, source, cause, req.Raw)
	} else {
		err = u.auditService.LogIntakeAccepted(ctx, source, resp.CarePlanID, req.Raw)
	}
	if err != nil {
		u.log.Warnf("Failed to audit intake from %s: %+v", source, err)
	}
}
