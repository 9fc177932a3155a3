package drive

import (
	"context"
	"log/slog"
	"mime"
	"path"
	"strings"

	"droply/internal/domain"
	models "droply/internal/domain/models/drive"
	"droply/internal/domain/services"
	driveSvc "droply/internal/domain/services/drive"
	"droply/internal/policy"

	"github.com/google/uuid"
)

const defaultUploadName = "Untitled"

type uploadService struct {
	entries    driveSvc.EntryService
	rules      driveSvc.TreeRules
	store      driveSvc.ObjectStore
	policy     *policy.Policy
	authorizer services.ResourceAuthorizer
	keyPrefix  string
	logger     *slog.Logger
}

// NewUploadService creates the service that puts bytes in the object store
// and records the resulting file entry. keyPrefix is the top-level folder
// for every object key.
func NewUploadService(
	entries driveSvc.EntryService,
	rules driveSvc.TreeRules,
	store driveSvc.ObjectStore,
	uploadPolicy *policy.Policy,
	authorizer services.ResourceAuthorizer,
	keyPrefix string,
	logger *slog.Logger,
) driveSvc.UploadService {
	return &uploadService{
		entries:    entries,
		rules:      rules,
		store:      store,
		policy:     uploadPolicy,
		authorizer: authorizer,
		keyPrefix:  strings.Trim(keyPrefix, "/"),
		logger:     logger,
	}
}

// Upload checks the parent and the upload policy, streams the body to the
// object store, then creates the file entry. Nothing is uploaded for a
// request that would be rejected anyway. If the entry cannot be recorded the
// stored object is removed again.
func (s *uploadService) Upload(ctx context.Context, req *driveSvc.UploadRequest) (*models.Entry, error) {
	if req.OwnerID == "" {
		return nil, &domain.UnauthorizedError{Message: "missing user identity"}
	}

	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = defaultUploadName
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	contentType := s.policy.NormalizeMimeType(req.ContentType)
	if err := s.policy.CheckUpload(contentType, req.Size); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	parentID := normalizeParentID(req.ParentID)
	if parentID != nil {
		if err := s.rules.ValidateParent(ctx, req.OwnerID, *parentID); err != nil {
			return nil, err
		}
	}

	key := s.objectKey(req.OwnerID, parentID, name, contentType)
	meta, err := s.store.Put(ctx, &driveSvc.PutObjectInput{
		Key:         key,
		ContentType: contentType,
		Size:        req.Size,
		Body:        req.Body,
	})
	if err != nil {
		return nil, &domain.StorageIntegrationError{Op: "put", Err: err}
	}
	if meta.Size == 0 {
		meta.Size = req.Size
	}
	if meta.MimeType == "" {
		meta.MimeType = contentType
	}

	entry, err := s.entries.CreateEntry(ctx, &driveSvc.CreateEntryRequest{
		OwnerID:  req.OwnerID,
		Name:     name,
		IsFolder: false,
		ParentID: parentID,
		Storage:  meta,
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, meta.Path); delErr != nil {
			s.logger.Error("failed to remove orphaned upload",
				"path", meta.Path,
				"owner_id", req.OwnerID,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.logger.Info("file uploaded",
		"id", entry.ID,
		"owner_id", entry.OwnerID,
		"path", meta.Path,
		"size", meta.Size,
		"mime_type", meta.MimeType,
	)

	return entry, nil
}

// RegisterUpload records a file the client already pushed to the object
// store. The client-supplied owner must be the caller, and the descriptor
// must pass the same type and size policy as a direct upload.
func (s *uploadService) RegisterUpload(ctx context.Context, userID string, req *driveSvc.RegisterUploadRequest) (*models.Entry, error) {
	if err := s.authorizer.CheckClaimedOwner(userID, req.OwnerID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultUploadName
	}

	storage := req.Storage
	storage.MimeType = s.policy.NormalizeMimeType(storage.MimeType)
	if err := s.policy.CheckUpload(storage.MimeType, storage.Size); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	return s.entries.CreateEntry(ctx, &driveSvc.CreateEntryRequest{
		OwnerID:  userID,
		Name:     name,
		IsFolder: false,
		ParentID: req.ParentID,
		Storage:  &storage,
	})
}

// objectKey builds <prefix>/<owner>/[folders/<parent>/]<uuid><ext>
func (s *uploadService) objectKey(ownerID string, parentID *string, name, contentType string) string {
	parts := make([]string, 0, 5)
	if s.keyPrefix != "" {
		parts = append(parts, s.keyPrefix)
	}
	parts = append(parts, ownerID)
	if parentID != nil {
		parts = append(parts, "folders", *parentID)
	}
	parts = append(parts, uuid.NewString()+extension(name, contentType))
	return strings.Join(parts, "/")
}

// extension prefers the file name's extension and falls back to the MIME type
func extension(name, contentType string) string {
	if ext := strings.ToLower(path.Ext(name)); ext != "" && ext != "." {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
