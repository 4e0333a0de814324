package validator

import (
	"strings"

	"filedrive/internal/application/metastore"
	"filedrive/internal/domain/file"
	"filedrive/internal/interface/api/rest/dto/auth"
	"filedrive/internal/interface/api/rest/dto/user"
)

const (
	maxPasswordLen = 72 // bcrypt safe
	maxFileIDLen   = 64
)

func ValidateSort(s string) file.SortMode {
	m := file.SortMode(strings.TrimSpace(s))
	if !m.Valid() {
		return file.DefaultSort
	}

	return m
}

// IsFileID rejects ids that could never have been issued.
func IsFileID(s string) bool {
	return s != "" && len(s) <= maxFileIDLen && !strings.ContainsAny(s, `/\`) && s != "." && s != ".."
}

func ValidateLogin(r auth.LoginRequest) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "name is required"
	}
	if r.Password == "" {
		errs["password"] = "password is required"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidateUser(r user.Request) map[string]string {
	errs := make(map[string]string)

	name := strings.TrimSpace(r.Name)
	if name == "" {
		errs["name"] = "name is required"
	} else if !metastore.ValidName(name) {
		errs["name"] = "allowed: 3-50 of a-z, 0-9, '-', '_', '.'"
	}

	validateNewPassword(errs, "password", r.Password, r.PasswordConfirm)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidatePassword checks a password change; current is required only when
// users change their own password.
func ValidatePassword(r user.PasswordRequest, requireCurrent bool) map[string]string {
	errs := make(map[string]string)

	if requireCurrent && r.CurrentPassword == "" {
		errs["current_password"] = "current_password is required"
	}
	validateNewPassword(errs, "new_password", r.NewPassword, r.NewPasswordConfirm)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidateLimits(r user.LimitsRequest) map[string]string {
	errs := make(map[string]string)

	if r.Quota == nil && r.MaxFiles == nil {
		errs["quota"] = "quota or max_files is required"
	}
	if r.Quota != nil && *r.Quota < 0 {
		errs["quota"] = "quota must not be negative"
	}
	if r.MaxFiles != nil && *r.MaxFiles < 0 {
		errs["max_files"] = "max_files must not be negative"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateNewPassword(errs map[string]string, field, password, confirm string) {
	switch {
	case strings.TrimSpace(password) == "":
		errs[field] = field + " is required"
	case len(password) > maxPasswordLen:
		errs[field] = field + " must be at most 72 bytes"
	case password != confirm:
		errs[field+"_confirm"] = "passwords do not match"
	}
}
