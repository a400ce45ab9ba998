package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/personalizeevents"
	"github.com/aws/aws-sdk-go-v2/service/personalizeevents/types"
)

// PutEventsAPI is the subset of *personalizeevents.Client used by the sink.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, in *personalizeevents.PutEventsInput, optFns ...func(*personalizeevents.Options)) (*personalizeevents.PutEventsOutput, error)
}

// PersonalizeSink forwards events to an event tracker.
type PersonalizeSink struct {
	api        PutEventsAPI
	trackingID string
}

var _ Sink = (*PersonalizeSink)(nil)

func NewPersonalizeSink(cfg aws.Config, trackingID string) (*PersonalizeSink, error) {
	return NewPersonalizeSinkWithAPI(personalizeevents.NewFromConfig(cfg), trackingID)
}

func NewPersonalizeSinkWithAPI(api PutEventsAPI, trackingID string) (*PersonalizeSink, error) {
	if trackingID == "" {
		return nil, errors.New("event tracking id is required")
	}
	return &PersonalizeSink{api: api, trackingID: trackingID}, nil
}

func (s *PersonalizeSink) Send(ctx context.Context, e Event) error {
	ev := types.Event{
		EventId:   aws.String(e.ID.String()),
		EventType: aws.String(e.Type),
		SentAt:    aws.Time(e.SentAt),
	}
	if e.ItemID != "" {
		ev.ItemId = aws.String(e.ItemID)
	}
	_, err := s.api.PutEvents(ctx, &personalizeevents.PutEventsInput{
		TrackingId: aws.String(s.trackingID),
		SessionId:  aws.String(e.SessionID),
		UserId:     aws.String(e.UserID),
		EventList:  []types.Event{ev},
	})
	if err != nil {
		return fmt.Errorf("put event for session %s: %w", e.SessionID, err)
	}
	return nil
}
