package drive

import (
	"fmt"
	"regexp"
	"strings"

	"droply/internal/config"
	"droply/internal/domain"
	models "droply/internal/domain/models/drive"
	driveSvc "droply/internal/domain/services/drive"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var noSlash = regexp.MustCompile(`^[^/]+$`)

// nameRules are shared by create, rename and upload
func nameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.RuneLength(1, config.MaxEntryNameLength),
		validation.Match(noSlash).Error("name cannot contain slashes"),
	}
}

func validateName(name string) error {
	if err := validation.Validate(name, nameRules()...); err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("name: %v", err)}
	}
	return nil
}

// validateCreateRequest checks the name and the storage metadata rules:
// files need path, url, size and mime type; folders carry none of them.
func validateCreateRequest(req *driveSvc.CreateEntryRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name, nameRules()...),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}

	if req.IsFolder {
		if req.Storage != nil {
			return &domain.ValidationError{Message: "folders cannot carry storage metadata"}
		}
		return nil
	}

	if req.Storage == nil {
		return &domain.ValidationError{Message: "storage: file_path, url, size and mime_type are required for files"}
	}
	if err := validateStorage(req.Storage); err != nil {
		return err
	}
	return nil
}

func validateStorage(m *models.StorageMetadata) error {
	err := validation.ValidateStruct(m,
		validation.Field(&m.Path, validation.Required),
		validation.Field(&m.StorageURL, validation.Required),
		validation.Field(&m.Size, validation.Min(int64(0))),
		validation.Field(&m.MimeType, validation.Required),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("storage: %v", err)}
	}
	return nil
}

// validateUpdateRequest requires at least one field
func validateUpdateRequest(req *driveSvc.UpdateEntryRequest) error {
	if req.Name == nil && !req.ParentID.Present {
		return &domain.ValidationError{Message: "at least one of name or parent_id must be provided"}
	}
	if req.Name != nil {
		return validateName(strings.TrimSpace(*req.Name))
	}
	return nil
}

// checkID rejects malformed IDs up front. A malformed ID can never name an
// existing entry, so it is reported as not found.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("entry %q not found", id)}
	}
	return nil
}

// normalizeParentID treats an empty string like no parent
func normalizeParentID(parentID *string) *string {
	if parentID == nil || strings.TrimSpace(*parentID) == "" {
		return nil
	}
	return parentID
}
