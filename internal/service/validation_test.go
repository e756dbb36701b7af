package service

import (
	"errors"
	"testing"

	"trading-panel/internal/dto"
	"trading-panel/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		input      interface{}
		wantFields map[string]string
	}{
		{
			name:  "valid create",
			input: dto.CreatePositionRequest{Name: "BTC", PosType: "long", Percent: utils.ToPointer(10), TakeProfit: 110, StopLoss: 90},
		},
		{
			name:       "percent is required",
			input:      dto.CreatePositionRequest{Name: "BTC", PosType: "long", TakeProfit: 110, StopLoss: 90},
			wantFields: map[string]string{"percent": "is required"},
		},
		{
			name:  "missing name and bad type",
			input: dto.CreatePositionRequest{PosType: "hedge", Percent: utils.ToPointer(10), TakeProfit: 110, StopLoss: 90},
			wantFields: map[string]string{
				"name":     "is required",
				"pos_type": "must be one of: long short",
			},
		},
		{
			name:       "equal levels",
			input:      dto.CreatePositionRequest{Name: "BTC", PosType: "short", Percent: utils.ToPointer(10), TakeProfit: 5, StopLoss: 5},
			wantFields: map[string]string{"take_profit": "must differ from stop_loss"},
		},
		{
			name:       "percent bounds",
			input:      dto.UpdatePositionRequest{Percent: utils.ToPointer(0)},
			wantFields: map[string]string{"percent": "must be at least 1"},
		},
		{
			name:       "alert target",
			input:      dto.CreateAlertRequest{Name: "BTC", TargetPrice: -1},
			wantFields: map[string]string{"target_price": "must be greater than 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateStruct(v, tt.input)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var vErr *dto.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantFields, vErr.Fields)
			assert.ErrorIs(t, err, dto.ErrValidation)
		})
	}
}
