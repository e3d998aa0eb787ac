package videos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/server/auth"
	sc "github.com/avolkov/clipvault/internal/server/config"
)

const presignValidity = 15 * time.Minute

// Service owns video metadata and hands out short-lived presigned URLs for
// the S3-compatible object store. Bytes never pass through this process;
// clients upload and stream directly against the store.
type Service struct {
	repo   Repository
	config *sc.Config
}

func NewService(repo Repository, config *sc.Config) *Service {
	return &Service{
		repo:   repo,
		config: config,
	}
}

// UploadGrant is what a client needs to push the video bytes: the created
// metadata record and a presigned PUT URL for its storage key.
type UploadGrant struct {
	Video     *Video
	UploadURL string
}

func storageKey(ownerID int64) string {
	d := time.Now()
	return fmt.Sprintf("videos/%d/%d/%d/%d/%v", ownerID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// RequestUpload creates the metadata record in UPLOADING state and presigns
// a PUT URL for it. The client declares the payload size up front; the
// presigned URL is bound to that exact size and content type.
func (s *Service) RequestUpload(ctx context.Context, owner auth.Identity, title, description, contentType string, size int64) (*UploadGrant, error) {

	if strings.TrimSpace(title) == "" {
		return nil, common.ErrorValidation
	}
	if size <= 0 || size > s.config.MaxUploadSize {
		return nil, common.ErrorValidation
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	video := &Video{
		OwnerID:     owner.UserID,
		Title:       title,
		Description: description,
		StorageKey:  storageKey(owner.UserID),
		ContentType: contentType,
		SizeBytes:   size,
		Status:      StatusUploading,
	}

	video, err := s.repo.Create(ctx, video)
	if err != nil {
		return nil, common.ErrorInternal
	}

	url, err := s.presignPut(ctx, video.StorageKey, contentType, size)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &UploadGrant{Video: video, UploadURL: url}, nil
}

// CompleteUpload flips the video to READY once the client confirms the PUT
// finished. Only the owner or an admin may confirm.
func (s *Service) CompleteUpload(ctx context.Context, caller auth.Identity, videoID int64) error {

	video, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		return err
	}

	if err := canModify(caller, video); err != nil {
		return err
	}

	return s.repo.UpdateStatus(ctx, videoID, StatusReady)
}

func (s *Service) Get(ctx context.Context, videoID int64) (*Video, error) {
	return s.repo.FindByID(ctx, videoID)
}

func (s *Service) List(ctx context.Context) ([]*Video, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]*Video, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// StreamURL presigns a GET URL for a READY video. Only the owner or an
// admin may stream.
func (s *Service) StreamURL(ctx context.Context, caller auth.Identity, videoID int64) (string, error) {

	video, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		return "", err
	}

	if err := canModify(caller, video); err != nil {
		return "", err
	}

	if video.Status != StatusReady {
		return "", common.ErrorNotFound
	}

	url, err := s.presignGet(ctx, video.StorageKey)
	if err != nil {
		return "", common.ErrorInternal
	}

	return url, nil
}

func (s *Service) UpdateMeta(ctx context.Context, caller auth.Identity, videoID int64, title, description string) error {

	if strings.TrimSpace(title) == "" {
		return common.ErrorValidation
	}

	video, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		return err
	}

	if err := canModify(caller, video); err != nil {
		return err
	}

	return s.repo.UpdateMeta(ctx, videoID, title, description)
}

// Delete removes the metadata record. The stored object is left to bucket
// lifecycle rules.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, videoID int64) error {

	video, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		return err
	}

	if err := canModify(caller, video); err != nil {
		return err
	}

	affected, err := s.repo.Delete(ctx, videoID)
	if err != nil {
		return common.ErrorInternal
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func canModify(caller auth.Identity, video *Video) error {
	if caller.IsAdmin() || caller.UserID == video.OwnerID {
		return nil
	}
	return common.ErrorForbidden
}

func (s *Service) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return s3.NewPresignClient(client), nil
}

func (s *Service) presignPut(ctx context.Context, key, contentType string, size int64) (string, error) {

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.config.S3Bucket,
		Key:           &key,
		ContentType:   &contentType,
		ContentLength: &size,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *Service) presignGet(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.config.S3Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
