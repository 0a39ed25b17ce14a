package concept

import (
	"reflect"
	"testing"
)

func TestMerge_CaseInsensitiveDedup(t *testing.T) {
	a := &Graph{
		UserTypes:       []string{"Admin", "Agent"},
		IssueCategories: []string{"MFA"},
	}
	b := &Graph{
		UserTypes:       []string{"admin", "End User"},
		IssueCategories: []string{"mfa", "Billing"},
	}

	merged := Merge([]*Graph{a, b})

	wantUsers := []string{"Admin", "Agent", "End User"}
	if !reflect.DeepEqual(merged.UserTypes, wantUsers) {
		t.Errorf("user types: got %v, want %v (first-seen casing wins)", merged.UserTypes, wantUsers)
	}
	wantCategories := []string{"MFA", "Billing"}
	if !reflect.DeepEqual(merged.IssueCategories, wantCategories) {
		t.Errorf("issue categories: got %v, want %v", merged.IssueCategories, wantCategories)
	}
}

func TestMerge_ProceduresByName(t *testing.T) {
	a := &Graph{
		Procedures: []Procedure{
			{Name: "Reset MFA", Steps: []string{"verify identity", "reset token"}},
		},
	}
	b := &Graph{
		Procedures: []Procedure{
			{Name: "reset mfa", Steps: []string{"different steps"}},
			{Name: "Unlock Account", Steps: []string{"check lockout"}},
		},
	}

	merged := Merge([]*Graph{a, b})
	if len(merged.Procedures) != 2 {
		t.Fatalf("expected 2 procedures, got %d", len(merged.Procedures))
	}
	// First occurrence wins wholesale, including its steps.
	if merged.Procedures[0].Name != "Reset MFA" || merged.Procedures[0].Steps[0] != "verify identity" {
		t.Errorf("first-seen procedure should be retained intact, got %+v", merged.Procedures[0])
	}
}

func TestMerge_DecisionPointsByNormalizedQuestion(t *testing.T) {
	a := &Graph{
		DecisionPoints: []DecisionPoint{{Question: "Is MFA enabled?"}},
	}
	b := &Graph{
		DecisionPoints: []DecisionPoint{
			{Question: "is mfa   enabled"},
			{Question: "Is the account locked?"},
		},
	}

	merged := Merge([]*Graph{a, b})
	if len(merged.DecisionPoints) != 2 {
		t.Fatalf("expected 2 decision points, got %d", len(merged.DecisionPoints))
	}
	if merged.DecisionPoints[0].Question != "Is MFA enabled?" {
		t.Errorf("expected first-seen question retained, got %q", merged.DecisionPoints[0].Question)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	g := &Graph{
		Principles:      []string{"verify identity before any change"},
		UserTypes:       []string{"Agent"},
		IssueCategories: []string{"MFA", "Billing"},
		Procedures:      []Procedure{{Name: "Reset MFA"}},
		DecisionPoints:  []DecisionPoint{{Question: "Is this an MFA issue?"}},
		ConceptOrder:    []string{"MFA", "Reset MFA"},
	}

	once := Merge([]*Graph{g})
	twice := Merge([]*Graph{once})
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMerge_SkipsNilAndEmpty(t *testing.T) {
	merged := Merge([]*Graph{nil, {}, {UserTypes: []string{"", "Agent"}}})
	if !reflect.DeepEqual(merged.UserTypes, []string{"Agent"}) {
		t.Errorf("expected empty entries skipped, got %v", merged.UserTypes)
	}
	if merged.Principles == nil || merged.Procedures == nil {
		t.Error("merged graph must have non-nil slices")
	}
}
