package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"recops/internal/models"
)

// HeadBucketAPI is the subset of *s3.Client used by BucketProvider.
type HeadBucketAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// BucketProvider reports whether an object storage bucket exists. A bucket
// that exists and is reachable is ACTIVE; a missing one is NOT FOUND.
type BucketProvider struct {
	api HeadBucketAPI
}

var _ StatusProvider = (*BucketProvider)(nil)

func NewBucketProvider(cfg aws.Config) *BucketProvider {
	return &BucketProvider{api: s3.NewFromConfig(cfg)}
}

func NewBucketProviderWithAPI(api HeadBucketAPI) *BucketProvider {
	return &BucketProvider{api: api}
}

func (p *BucketProvider) Name() string { return "s3" }

func (p *BucketProvider) Kinds() []models.ResourceKind {
	return []models.ResourceKind{models.KindBucket}
}

func (p *BucketProvider) Describe(ctx context.Context, ref models.ResourceRef) (models.Status, error) {
	_, err := p.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(ref.ID)})
	if err == nil {
		return models.NewStatus(ref, models.RawActive), nil
	}
	if isBucketNotFound(err) {
		return models.NewStatus(ref, models.RawNotFound), nil
	}
	return models.Status{}, fmt.Errorf("head bucket %s: %w", ref.ID, err)
}

func isBucketNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsb *s3types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}
