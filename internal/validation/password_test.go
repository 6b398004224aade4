package validation

import (
	"errors"
	"testing"
)

func TestPasswordStrengthTiers(t *testing.T) {
	cases := []struct {
		name         string
		password     string
		wantScore    int
		wantStrength Strength
	}{
		{"empty", "", 0, StrengthVeryWeak},
		{"lowercase only", "abc", 1, StrengthVeryWeak},
		{"two rules", "abcdefgh", 2, StrengthWeak},
		{"three rules", "Abcdefgh", 3, StrengthFair},
		{"four rules", "Abcdefg1", 4, StrengthGood},
		{"all rules", "Abcdef1!", 5, StrengthStrong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := PasswordStrength(tc.password)
			if result.Score != tc.wantScore {
				t.Fatalf("score = %d, want %d", result.Score, tc.wantScore)
			}
			if result.Strength != tc.wantStrength {
				t.Fatalf("strength = %s, want %s", result.Strength, tc.wantStrength)
			}
			if len(result.Feedback) != 5-tc.wantScore {
				t.Fatalf("feedback entries = %d, want %d", len(result.Feedback), 5-tc.wantScore)
			}
		})
	}
}

func TestPasswordStrengthFeedbackOrder(t *testing.T) {
	// Every rule is evaluated independently, so a fully failing password
	// lists all five remediations in rule order.
	result := PasswordStrength("")
	want := []string{
		"Password should be at least 8 characters long",
		"Password should contain at least one lowercase letter",
		"Password should contain at least one uppercase letter",
		"Password should contain at least one number",
		"Password should contain at least one special character",
	}

	if len(result.Feedback) != len(want) {
		t.Fatalf("feedback entries = %d, want %d", len(result.Feedback), len(want))
	}
	for i, message := range want {
		if result.Feedback[i] != message {
			t.Fatalf("feedback[%d] = %q, want %q", i, result.Feedback[i], message)
		}
	}
}

func TestPasswordStrengthShortPassword(t *testing.T) {
	result := PasswordStrength("a")
	if result.Score != 1 {
		t.Fatalf("score = %d, want 1", result.Score)
	}
	found := false
	for _, message := range result.Feedback {
		if message == "Password should be at least 8 characters long" {
			found = true
		}
	}
	if !found {
		t.Fatal("feedback is missing the minimum length message")
	}
}

func TestPasswordStrengthStrongHasNoFeedback(t *testing.T) {
	result := PasswordStrength("Abcdef1!")
	if result.Score != 5 || result.Strength != StrengthStrong {
		t.Fatalf("got score=%d strength=%s, want 5/strong", result.Score, result.Strength)
	}
	if len(result.Feedback) != 0 {
		t.Fatalf("expected empty feedback, got %v", result.Feedback)
	}
}

func TestMinScoreRule(t *testing.T) {
	rule := MinScoreRule(4)

	if err := rule.Validate("Abcdefg1"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}

	err := rule.Validate("abc")
	if err == nil {
		t.Fatal("expected violation for a weak password")
	}
	var violation *RuleViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolation, got %T", err)
	}
	if violation.Code != "min_score" {
		t.Fatalf("code = %q, want min_score", violation.Code)
	}
	if violation.Message != "Password should be at least 8 characters long" {
		t.Fatalf("unexpected message %q", violation.Message)
	}
}

func TestPolicyRunsRulesInOrder(t *testing.T) {
	var order []string
	policy := NewPolicy(
		RuleFunc(func(string) error {
			order = append(order, "first")
			return nil
		}),
		RuleFunc(func(string) error {
			order = append(order, "second")
			return &RuleViolation{Code: "stop", Message: "stop"}
		}),
		RuleFunc(func(string) error {
			order = append(order, "third")
			return nil
		}),
	)

	if err := policy.Validate("anything"); err == nil {
		t.Fatal("expected the second rule's violation")
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected rule order %v", order)
	}
}

func TestZxcvbnRuleRejectsCommonPasswords(t *testing.T) {
	rule := ZxcvbnRule(2)

	if err := rule.Validate("password"); err == nil {
		t.Fatal("expected a dictionary password to be rejected")
	}
	if err := rule.Validate("curious-otter-Bal7oon"); err != nil {
		t.Fatalf("unexpected violation for a long random passphrase: %v", err)
	}
}
