package gate

import (
	"fmt"
	"strings"
	"unicode"
)

// Validation failure codes, one per rule.
const (
	CodeMissingFields = "missing_fields"
	CodeInvalidUserID = "invalid_user_id"
	CodeInvalidPermit = "invalid_permit_id"
	CodeInvalidName   = "invalid_user_name"
)

// ValidationError reports which rule rejected the identity and which fields
// were involved.
type ValidationError struct {
	Code   string
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Validated is an identity that passed all checks. IsTestData marks the
// passthrough allowance for non-production traffic; it is informational, not
// a security boundary.
type Validated struct {
	Identity
	IsTestData bool
}

// Test-data prefixes admitted for staging scans.
var (
	testUserPrefixes   = []string{"test-", "manual-"}
	testPermitPrefixes = []string{"TEST-", "MANUAL-"}
)

// Validate applies the identity rules in order, short-circuiting on the first
// failure:
//  1. all three fields present
//  2. userId length >= 3
//  3. permitId length >= 3
//  4. userName length >= 2
//  5. userId contains no whitespace
func Validate(id Identity) (*Validated, error) {
	var missing []string
	if id.UserID == "" {
		missing = append(missing, "userId")
	}
	if id.PermitID == "" {
		missing = append(missing, "permitId")
	}
	if id.UserName == "" {
		missing = append(missing, "userName")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Code:   CodeMissingFields,
			Fields: missing,
			Reason: "required identity fields are missing",
		}
	}

	if len(id.UserID) < 3 {
		return nil, &ValidationError{
			Code:   CodeInvalidUserID,
			Fields: []string{"userId"},
			Reason: "userId must be at least 3 characters",
		}
	}

	if len(id.PermitID) < 3 {
		return nil, &ValidationError{
			Code:   CodeInvalidPermit,
			Fields: []string{"permitId"},
			Reason: "permitId must be at least 3 characters",
		}
	}

	if len(id.UserName) < 2 {
		return nil, &ValidationError{
			Code:   CodeInvalidName,
			Fields: []string{"userName"},
			Reason: "userName must be at least 2 characters",
		}
	}

	if strings.ContainsFunc(id.UserID, unicode.IsSpace) {
		return nil, &ValidationError{
			Code:   CodeInvalidUserID,
			Fields: []string{"userId"},
			Reason: "userId must not contain whitespace",
		}
	}

	return &Validated{Identity: id, IsTestData: isTestData(id)}, nil
}

func isTestData(id Identity) bool {
	for _, p := range testUserPrefixes {
		if strings.HasPrefix(id.UserID, p) {
			return true
		}
	}
	for _, p := range testPermitPrefixes {
		if strings.HasPrefix(id.PermitID, p) {
			return true
		}
	}
	return false
}
