package ports_test

import (
	"testing"

	"github.com/ssplaza/plaza-api/internal/ports"
	"github.com/stretchr/testify/assert"
)

func TestProfileListOptions_Normalized(t *testing.T) {
	tests := []struct {
		name string
		in   ports.ProfileListOptions
		want ports.ProfileListOptions
	}{
		{"zero limit defaults", ports.ProfileListOptions{}, ports.ProfileListOptions{Limit: ports.DefaultProfileListLimit}},
		{"in range kept", ports.ProfileListOptions{Limit: 10, Offset: 30}, ports.ProfileListOptions{Limit: 10, Offset: 30}},
		{"over max clamped", ports.ProfileListOptions{Limit: 10000}, ports.ProfileListOptions{Limit: ports.MaxProfileListLimit}},
		{"negative offset floored", ports.ProfileListOptions{Limit: 5, Offset: -3}, ports.ProfileListOptions{Limit: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalized())
		})
	}
}
