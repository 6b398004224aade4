package validation

import (
	"fmt"
	"regexp"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// Strength labels the tier derived from a password's rule score.
type Strength string

const (
	StrengthVeryWeak Strength = "very-weak"
	StrengthWeak     Strength = "weak"
	StrengthFair     Strength = "fair"
	StrengthGood     Strength = "good"
	StrengthStrong   Strength = "strong"
)

// StrengthResult reports how many of the five password rules are satisfied,
// the tier that score maps to, and one remediation message per unmet rule in
// evaluation order.
type StrengthResult struct {
	Score    int
	Strength Strength
	Feedback []string
}

var (
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex     = regexp.MustCompile(`[0-9]`)
	specialRegex   = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// PasswordStrength scores password against five independent rules: minimum
// length of 8, lowercase, uppercase, digit, and special character. All rules
// are evaluated regardless of earlier failures so Feedback always lists every
// unmet rule.
func PasswordStrength(password string) StrengthResult {
	feedback := make([]string, 0, 5)
	score := 0

	if HasMinLength(password, 8) {
		score++
	} else {
		feedback = append(feedback, "Password should be at least 8 characters long")
	}

	if lowercaseRegex.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "Password should contain at least one lowercase letter")
	}

	if uppercaseRegex.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "Password should contain at least one uppercase letter")
	}

	if digitRegex.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "Password should contain at least one number")
	}

	if specialRegex.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "Password should contain at least one special character")
	}

	var strength Strength
	switch {
	case score <= 1:
		strength = StrengthVeryWeak
	case score == 2:
		strength = StrengthWeak
	case score == 3:
		strength = StrengthFair
	case score == 4:
		strength = StrengthGood
	default:
		strength = StrengthStrong
	}

	return StrengthResult{Score: score, Strength: strength, Feedback: feedback}
}

// RuleViolation represents a single password policy violation.
type RuleViolation struct {
	Code    string
	Message string
}

// Error implements error for RuleViolation.
func (e *RuleViolation) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Rule validates a password according to a specific policy rule.
type Rule interface {
	Validate(password string) error
}

// RuleFunc adapts a function to be used as a Rule.
type RuleFunc func(password string) error

// Validate executes the underlying rule function.
func (f RuleFunc) Validate(password string) error {
	return f(password)
}

// Policy applies a sequence of password rules.
type Policy struct {
	rules []Rule
}

// NewPolicy constructs a policy with the provided rules.
func NewPolicy(rules ...Rule) *Policy {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Policy{rules: copied}
}

// Validate executes all rules and returns the first encountered violation.
func (p *Policy) Validate(password string) error {
	if p == nil {
		return fmt.Errorf("password policy not configured")
	}
	for _, rule := range p.rules {
		if err := rule.Validate(password); err != nil {
			return err
		}
	}
	return nil
}

// MinScoreRule requires the five-rule strength score to reach min. The
// violation message carries the first unmet rule's remediation text so the
// caller can surface it directly.
func MinScoreRule(min int) Rule {
	return RuleFunc(func(password string) error {
		result := PasswordStrength(password)
		if result.Score >= min {
			return nil
		}
		message := fmt.Sprintf("password strength %s is below the required level", result.Strength)
		if len(result.Feedback) > 0 {
			message = result.Feedback[0]
		}
		return &RuleViolation{Code: "min_score", Message: message}
	})
}

// ZxcvbnRule enforces a minimum zxcvbn score to reject guessable passwords
// that still satisfy the character-class rules.
func ZxcvbnRule(minScore int, userInputs ...string) Rule {
	return RuleFunc(func(password string) error {
		if minScore <= 0 {
			return nil
		}
		if minScore > 4 {
			minScore = 4
		}

		result := zxcvbn.PasswordStrength(password, userInputs)
		if result.Score >= minScore {
			return nil
		}

		return &RuleViolation{
			Code:    "guessable",
			Message: "password is too easy to guess; choose a less common value",
		}
	})
}

// DefaultPolicy returns the sign-up gate applied before the provider call:
// at least four of five strength rules plus a zxcvbn guessability floor.
func DefaultPolicy(userInputs ...string) *Policy {
	return NewPolicy(
		MinScoreRule(4),
		ZxcvbnRule(2, userInputs...),
	)
}
