package triage

import (
	"errors"
	"testing"

	"github.com/linnemanlabs/sift/internal/assessment"
)

func TestValidateAssessment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		a             *assessment.Assessment
		wantErr       error
		wantScoreable []string
	}{
		{
			name:    "nil assessment",
			a:       nil,
			wantErr: ErrMalformedAssessment,
		},
		{
			name:    "no domain responses",
			a:       testAssessment(nil),
			wantErr: ErrMalformedAssessment,
		},
		{
			name:    "empty domain responses",
			a:       testAssessment(map[string]*assessment.DomainResponse{}),
			wantErr: ErrMalformedAssessment,
		},
		{
			name: "all below threshold",
			a: testAssessment(map[string]*assessment.DomainResponse{
				assessment.DomainRevenueEngine: {
					Domain:        assessment.DomainRevenueEngine,
					Answers:       map[string]assessment.Answer{"q1": {Value: fptr(3)}},
					QuestionCount: 10,
				},
			}),
			wantErr: ErrInsufficientData,
		},
		{
			name: "nil and empty domains skipped",
			a: testAssessment(map[string]*assessment.DomainResponse{
				assessment.DomainRevenueEngine: nil,
				assessment.DomainPartnerships: {
					Domain:  assessment.DomainPartnerships,
					Answers: map[string]assessment.Answer{},
				},
			}),
			wantErr: ErrInsufficientData,
		},
		{
			name: "mixed completeness keeps eligible domains sorted",
			a: testAssessment(map[string]*assessment.DomainResponse{
				assessment.DomainRevenueEngine:       numericDomain(assessment.DomainRevenueEngine, 3, 5),
				assessment.DomainFinancialManagement: numericDomain(assessment.DomainFinancialManagement, 4, 5),
				assessment.DomainPartnerships: {
					Domain:        assessment.DomainPartnerships,
					Answers:       map[string]assessment.Answer{"q1": {Value: fptr(2)}},
					QuestionCount: 10,
				},
			}),
			wantScoreable: []string{
				assessment.DomainFinancialManagement,
				assessment.DomainRevenueEngine,
			},
		},
		{
			name: "null answers do not count toward completeness",
			a: testAssessment(map[string]*assessment.DomainResponse{
				assessment.DomainRevenueEngine: {
					Domain: assessment.DomainRevenueEngine,
					Answers: map[string]assessment.Answer{
						"q1": {Value: fptr(3)},
						"q2": {}, // answered key, no content
						"q3": {},
						"q4": {},
						"q5": {},
					},
					QuestionCount: 5,
				},
			}),
			wantErr: ErrInsufficientData, // 1/5 = 20%
		},
		{
			name: "exactly at threshold is scoreable",
			a: testAssessment(map[string]*assessment.DomainResponse{
				assessment.DomainRevenueEngine: {
					Domain: assessment.DomainRevenueEngine,
					Answers: map[string]assessment.Answer{
						"q1": {Value: fptr(3)},
						"q2": {Value: fptr(4)},
					},
					QuestionCount: 5, // 2/5 = 40%
				},
			}),
			wantScoreable: []string{assessment.DomainRevenueEngine},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scoreable, err := validateAssessment(tt.a, 40)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if len(scoreable) != len(tt.wantScoreable) {
				t.Fatalf("scoreable = %v, want %v", scoreable, tt.wantScoreable)
			}
			for i, d := range tt.wantScoreable {
				if scoreable[i] != d {
					t.Errorf("scoreable[%d] = %q, want %q", i, scoreable[i], d)
				}
			}
		})
	}
}
