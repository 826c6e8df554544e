package service

import (
	"fmt"
	"strings"
)

func validateNonNegativeInt(name string, value int) error {
	if value < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

func validateOwner(ownerID string) (string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", fmt.Errorf("user id is required")
	}
	return ownerID, nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}
