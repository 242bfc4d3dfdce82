package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/storage"
)

const (
	// MaxPolicySize caps uploaded policy documents.
	MaxPolicySize   int64 = 20 << 20
	downloadURLTTL        = 15 * time.Minute
	defaultCategory       = "general"
)

// PolicyUpload describes an uploaded policy document. The content is passed separately.
type PolicyUpload struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Category    string `json:"category" validate:"omitempty,max=60"`
	Description string `json:"description" validate:"max=2000"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"max=255"`
	Size        int64  `json:"size" validate:"gte=0"`
}

// DownloadLink is a time-limited URL for fetching a policy file.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PolicyFile is an open policy document. The caller must close Body.
type PolicyFile struct {
	Policy      *model.Policy
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// PolicyService defines the use cases for company policy documents.
type PolicyService interface {
	// Upload stores the content in object storage, saves metadata to DB, and rolls back storage if the DB save fails.
	Upload(ctx context.Context, actor Actor, in PolicyUpload, r io.Reader) (*model.Policy, error)
	Get(ctx context.Context, id string) (*model.Policy, error)
	List(ctx context.Context, category string, limit, offset int) (*ListResult[model.Policy], error)
	// Delete removes a policy from both storage and repository.
	Delete(ctx context.Context, id string) error
	// DownloadURL returns a presigned link valid for 15 minutes.
	DownloadURL(ctx context.Context, id string) (*DownloadLink, error)
	// Open streams the stored file through the API.
	Open(ctx context.Context, id string) (*PolicyFile, error)
}

type policyService struct {
	store storage.Storage
	repo  repository.PolicyRepository
	now   clock
}

func NewPolicyService(store storage.Storage, repo repository.PolicyRepository) PolicyService {
	return &policyService{store: store, repo: repo, now: systemClock(time.UTC)}
}

func (s *policyService) Upload(ctx context.Context, actor Actor, in PolicyUpload, r io.Reader) (*model.Policy, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Size > MaxPolicySize {
		return nil, fieldError("file", fmt.Sprintf("file must be at most %d MB", MaxPolicySize>>20))
	}

	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		category = defaultCategory
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.New().String()
	key := storage.PolicyKey(category, id, in.Filename)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
			"uploaded-by":       actor.UserID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	p := &model.Policy{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Category:    category,
		Description: in.Description,
		Filename:    storage.SanitizeFilename(in.Filename),
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: contentType,
		UploadedBy:  actor.UserID,
		CreatedAt:   s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, p)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *policyService) Get(ctx context.Context, id string) (*model.Policy, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound)
	}
	return p, nil
}

func (s *policyService) List(ctx context.Context, category string, limit, offset int) (*ListResult[model.Policy], error) {
	limit, offset = normalizePage(limit, offset)
	res, err := s.repo.List(ctx, strings.ToLower(strings.TrimSpace(category)), repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Policy]{Items: res.Items, Total: res.Total}, nil
}

// Delete removes the stored file first; if that fails the row is kept so the file is not orphaned.
func (s *policyService) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *policyService) DownloadURL(ctx context.Context, id string) (*DownloadLink, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := s.store.PresignGet(ctx, p.StoragePath, downloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}
	return &DownloadLink{URL: u, ExpiresAt: s.now().UTC().Add(downloadURLTTL)}, nil
}

func (s *policyService) Open(ctx context.Context, id string) (*PolicyFile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	body, info, err := s.store.Get(ctx, p.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = p.ContentType
	}
	return &PolicyFile{Policy: p, Body: body, Size: info.Size, ContentType: contentType}, nil
}
