package generation

import "context"

// MockCarePlanText is the fixed output of the mock backend.
const MockCarePlanText = `PHARMACIST CARE PLAN (MOCK)

1. Problem List / Drug Therapy Problems
- Medication adherence needs assessment.
- Monitor for adverse drug reactions.

2. Goals (SMART)
- Achieve therapeutic response within 4 weeks.
- No serious adverse events during therapy.

3. Pharmacist Interventions
- Counsel patient on dosing, administration and side effects.
- Reconcile current medication history with the new order.

4. Monitoring Plan
- Review labs and vitals at baseline and at each follow-up.
- Follow up with the prescriber if therapy goals are not met.`

// MockBackend returns MockCarePlanText without calling a vendor.
type MockBackend struct{}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (b *MockBackend) Name() string {
	return BackendMock
}

func (b *MockBackend) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", generationError(BackendMock, err)
	}
	return MockCarePlanText, nil
}
