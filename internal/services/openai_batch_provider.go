package services

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"recops/internal/models"
)

// BatchRetriever is the subset of *openai.Client used by the batch provider.
type BatchRetriever interface {
	RetrieveBatch(ctx context.Context, batchID string) (openai.BatchResponse, error)
}

// OpenAIBatchProvider reports the status of OpenAI Batch API jobs.
type OpenAIBatchProvider struct {
	client BatchRetriever
}

var _ StatusProvider = (*OpenAIBatchProvider)(nil)

// NewOpenAIBatchProvider returns nil when no API key is available, so the
// registry simply does not offer the openai-batch kind.
func NewOpenAIBatchProvider(apiKey string) *OpenAIBatchProvider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY") // Fallback to env var
	}
	if apiKey == "" {
		log.Debug("OpenAI API key not provided. OpenAI batch status provider disabled.")
		return nil
	}
	return &OpenAIBatchProvider{client: openai.NewClient(apiKey)}
}

func NewOpenAIBatchProviderWithClient(c BatchRetriever) *OpenAIBatchProvider {
	return &OpenAIBatchProvider{client: c}
}

func (p *OpenAIBatchProvider) Name() string { return "openai" }

func (p *OpenAIBatchProvider) Kinds() []models.ResourceKind {
	return []models.ResourceKind{models.KindOpenAIBatch}
}

// Describe retrieves a batch job and summarises its request counts.
func (p *OpenAIBatchProvider) Describe(ctx context.Context, ref models.ResourceRef) (models.Status, error) {
	resp, err := p.client.RetrieveBatch(ctx, ref.ID)
	if err != nil {
		return models.Status{}, fmt.Errorf("failed to retrieve OpenAI batch job %s: %w", ref.ID, err)
	}

	st := models.NewStatus(ref, string(resp.Status))
	if rc := resp.RequestCounts; rc.Total > 0 {
		st.Detail = fmt.Sprintf("%d/%d done, %d failed", rc.Completed, rc.Total, rc.Failed)
	}
	if resp.Errors != nil && len(resp.Errors.Data) > 0 {
		st.FailureReason = resp.Errors.Data[0].Message
	}
	return st, nil
}
