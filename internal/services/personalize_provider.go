package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/personalize"
	"github.com/aws/aws-sdk-go-v2/service/personalize/types"

	"recops/internal/models"
)

// PersonalizeAPI is the subset of *personalize.Client used here.
type PersonalizeAPI interface {
	DescribeDatasetGroup(ctx context.Context, in *personalize.DescribeDatasetGroupInput, optFns ...func(*personalize.Options)) (*personalize.DescribeDatasetGroupOutput, error)
	DescribeDataset(ctx context.Context, in *personalize.DescribeDatasetInput, optFns ...func(*personalize.Options)) (*personalize.DescribeDatasetOutput, error)
	DescribeDatasetImportJob(ctx context.Context, in *personalize.DescribeDatasetImportJobInput, optFns ...func(*personalize.Options)) (*personalize.DescribeDatasetImportJobOutput, error)
	DescribeSolution(ctx context.Context, in *personalize.DescribeSolutionInput, optFns ...func(*personalize.Options)) (*personalize.DescribeSolutionOutput, error)
	DescribeSolutionVersion(ctx context.Context, in *personalize.DescribeSolutionVersionInput, optFns ...func(*personalize.Options)) (*personalize.DescribeSolutionVersionOutput, error)
	DescribeCampaign(ctx context.Context, in *personalize.DescribeCampaignInput, optFns ...func(*personalize.Options)) (*personalize.DescribeCampaignOutput, error)
	DescribeFilter(ctx context.Context, in *personalize.DescribeFilterInput, optFns ...func(*personalize.Options)) (*personalize.DescribeFilterOutput, error)
	DescribeEventTracker(ctx context.Context, in *personalize.DescribeEventTrackerInput, optFns ...func(*personalize.Options)) (*personalize.DescribeEventTrackerOutput, error)
	DescribeRecommender(ctx context.Context, in *personalize.DescribeRecommenderInput, optFns ...func(*personalize.Options)) (*personalize.DescribeRecommenderOutput, error)
	DescribeBatchInferenceJob(ctx context.Context, in *personalize.DescribeBatchInferenceJobInput, optFns ...func(*personalize.Options)) (*personalize.DescribeBatchInferenceJobOutput, error)
}

var _ PersonalizeAPI = (*personalize.Client)(nil)

// PersonalizeProvider reports the status of recommendation service resources.
type PersonalizeProvider struct {
	api PersonalizeAPI
}

var _ StatusProvider = (*PersonalizeProvider)(nil)

func NewPersonalizeProvider(cfg aws.Config) *PersonalizeProvider {
	return NewPersonalizeProviderWithAPI(personalize.NewFromConfig(cfg))
}

func NewPersonalizeProviderWithAPI(api PersonalizeAPI) *PersonalizeProvider {
	return &PersonalizeProvider{api: api}
}

func (p *PersonalizeProvider) Name() string { return "personalize" }

func (p *PersonalizeProvider) Kinds() []models.ResourceKind {
	return []models.ResourceKind{
		models.KindDatasetGroup,
		models.KindDataset,
		models.KindDatasetImportJob,
		models.KindSolution,
		models.KindSolutionVersion,
		models.KindCampaign,
		models.KindFilter,
		models.KindEventTracker,
		models.KindRecommender,
		models.KindBatchInferenceJob,
	}
}

// Describe returns a snapshot for ref. A resource that no longer exists is
// reported with the synthetic NOT FOUND status rather than an error.
func (p *PersonalizeProvider) Describe(ctx context.Context, ref models.ResourceRef) (models.Status, error) {
	raw, reason, err := p.describe(ctx, ref)
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return models.NewStatus(ref, models.RawNotFound), nil
		}
		return models.Status{}, fmt.Errorf("describe %s: %w", ref, err)
	}
	st := models.NewStatus(ref, raw)
	st.FailureReason = reason
	return st, nil
}

var errEmptyDescribe = errors.New("empty describe response")

func (p *PersonalizeProvider) describe(ctx context.Context, ref models.ResourceRef) (status, reason string, err error) {
	arn := aws.String(ref.ID)
	switch ref.Kind {
	case models.KindDatasetGroup:
		out, err := p.api.DescribeDatasetGroup(ctx, &personalize.DescribeDatasetGroupInput{DatasetGroupArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.DatasetGroup == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.DatasetGroup.Status), aws.ToString(out.DatasetGroup.FailureReason), nil

	case models.KindDataset:
		out, err := p.api.DescribeDataset(ctx, &personalize.DescribeDatasetInput{DatasetArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.Dataset == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.Dataset.Status), "", nil

	case models.KindDatasetImportJob:
		out, err := p.api.DescribeDatasetImportJob(ctx, &personalize.DescribeDatasetImportJobInput{DatasetImportJobArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.DatasetImportJob == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.DatasetImportJob.Status), aws.ToString(out.DatasetImportJob.FailureReason), nil

	case models.KindSolution:
		out, err := p.api.DescribeSolution(ctx, &personalize.DescribeSolutionInput{SolutionArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.Solution == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.Solution.Status), "", nil

	case models.KindSolutionVersion:
		out, err := p.api.DescribeSolutionVersion(ctx, &personalize.DescribeSolutionVersionInput{SolutionVersionArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.SolutionVersion == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.SolutionVersion.Status), aws.ToString(out.SolutionVersion.FailureReason), nil

	case models.KindCampaign:
		out, err := p.api.DescribeCampaign(ctx, &personalize.DescribeCampaignInput{CampaignArn: arn})
		if err != nil {
			return "", "", err
		}
		c := out.Campaign
		if c == nil {
			return "", "", errEmptyDescribe
		}
		// An in-flight update leaves the campaign ACTIVE; report the update instead.
		if u := c.LatestCampaignUpdate; u != nil && aws.ToString(c.Status) == models.RawActive {
			if s := aws.ToString(u.Status); s != "" && s != models.RawActive {
				return s, aws.ToString(u.FailureReason), nil
			}
		}
		return aws.ToString(c.Status), aws.ToString(c.FailureReason), nil

	case models.KindFilter:
		out, err := p.api.DescribeFilter(ctx, &personalize.DescribeFilterInput{FilterArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.Filter == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.Filter.Status), aws.ToString(out.Filter.FailureReason), nil

	case models.KindEventTracker:
		out, err := p.api.DescribeEventTracker(ctx, &personalize.DescribeEventTrackerInput{EventTrackerArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.EventTracker == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.EventTracker.Status), "", nil

	case models.KindRecommender:
		out, err := p.api.DescribeRecommender(ctx, &personalize.DescribeRecommenderInput{RecommenderArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.Recommender == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.Recommender.Status), aws.ToString(out.Recommender.FailureReason), nil

	case models.KindBatchInferenceJob:
		out, err := p.api.DescribeBatchInferenceJob(ctx, &personalize.DescribeBatchInferenceJobInput{BatchInferenceJobArn: arn})
		if err != nil {
			return "", "", err
		}
		if out.BatchInferenceJob == nil {
			return "", "", errEmptyDescribe
		}
		return aws.ToString(out.BatchInferenceJob.Status), aws.ToString(out.BatchInferenceJob.FailureReason), nil
	}
	return "", "", fmt.Errorf("%w: %s", models.ErrUnsupportedKind, ref.Kind)
}
