package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// Node IDs are UUIDs
	nodeIDRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

	// Region names like us-east-1, eu-west-2
	regionRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{1,30}$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateNodeID checks if a node ID is a well-formed UUID
func ValidateNodeID(nodeID string) error {
	nodeID = SanitizeString(nodeID)

	if nodeID == "" {
		return errors.New("node id cannot be empty")
	}

	if !nodeIDRegex.MatchString(nodeID) {
		return errors.New("node id must be a UUID")
	}

	return nil
}

// ValidateRegion checks if a region name is valid
func ValidateRegion(region string) error {
	region = SanitizeString(region)

	if region == "" {
		return errors.New("region cannot be empty")
	}

	if !regionRegex.MatchString(region) {
		return errors.New("region must be lowercase alphanumeric with hyphens")
	}

	return nil
}

// ValidateScalingAction checks that an operator-supplied action is one the
// controller can execute
func ValidateScalingAction(action string) (models.ScalingAction, error) {
	switch models.ScalingAction(SanitizeString(action)) {
	case models.ActionScaleUp:
		return models.ActionScaleUp, nil
	case models.ActionScaleDown:
		return models.ActionScaleDown, nil
	case models.ActionRedistribute:
		return models.ActionRedistribute, nil
	default:
		return "", errors.New("action must be one of scale_up, scale_down, redistribute")
	}
}

// ValidateSeverity checks an operator-supplied trigger severity, defaulting
// to medium when empty
func ValidateSeverity(severity string) (models.TriggerSeverity, error) {
	s := models.TriggerSeverity(SanitizeString(severity))
	if s == "" {
		return models.SeverityMedium, nil
	}

	switch s {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
		return s, nil
	default:
		return "", errors.New("severity must be one of low, medium, high, critical")
	}
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) error {
	username = SanitizeString(username)

	if username == "" {
		return errors.New("username cannot be empty")
	}

	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}

	if len(username) > 50 {
		return errors.New("username must not exceed 50 characters")
	}

	return nil
}

// ValidateNodeCount checks if min/max node counts are valid
func ValidateNodeCount(min, max int) error {
	if min < 1 {
		return errors.New("minimum nodes must be at least 1")
	}

	if max < min {
		return errors.New("maximum nodes must be greater than or equal to minimum nodes")
	}

	if max > 1000 {
		return errors.New("maximum nodes cannot exceed 1000")
	}

	return nil
}
