package notify

import (
	"context"
	"errors"
	"testing"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanout_DeliversToEverySink(t *testing.T) {
	dept := "Facilities"
	var got []PendingProfilePayload
	record := SinkFunc(func(_ context.Context, p PendingProfilePayload) error {
		got = append(got, p)
		return nil
	})
	failing := SinkFunc(func(context.Context, PendingProfilePayload) error {
		return errors.New("webhook down")
	})

	err := Fanout{record, nil, failing, record}.NotifyPendingProfile(context.Background(), domainauth.Profile{
		UserID:     "u1",
		Email:      "u1@example.com",
		Role:       "field_staff",
		Department: &dept,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink 2: webhook down")
	require.Len(t, got, 2)
	assert.Equal(t, "Facilities", got[0].Department)
	assert.Equal(t, "field_staff", got[1].Role)
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, Fanout(nil).NotifyPendingProfile(context.Background(), domainauth.Profile{UserID: "u1"}))
	assert.NoError(t, SinkFunc(nil).SendPendingProfile(context.Background(), PendingProfilePayload{}))
}
