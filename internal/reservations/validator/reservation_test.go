package validator

import (
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"testing"
	"time"
)

func newTestValidator() *ReservationValidator {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewReservationValidator(log)
}

func TestValidateCreate(t *testing.T) {
	v := newTestValidator()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(72 * time.Hour)

	tests := []struct {
		name      string
		input     *model.ReservationInput
		wantError bool
	}{
		{
			name: "valid input",
			input: &model.ReservationInput{
				ListingID: "507f1f77bcf86cd799439011",
				StartDate: start,
				EndDate:   end,
				ChargeID:  "ch_abc123",
			},
			wantError: false,
		},
		{
			name: "missing listing id",
			input: &model.ReservationInput{
				StartDate: start,
				EndDate:   end,
				ChargeID:  "ch_abc123",
			},
			wantError: true,
		},
		{
			name: "malformed listing id",
			input: &model.ReservationInput{
				ListingID: "not-an-object-id",
				StartDate: start,
				EndDate:   end,
				ChargeID:  "ch_abc123",
			},
			wantError: true,
		},
		{
			name: "missing charge id",
			input: &model.ReservationInput{
				ListingID: "507f1f77bcf86cd799439011",
				StartDate: start,
				EndDate:   end,
			},
			wantError: true,
		},
		{
			name: "end before start",
			input: &model.ReservationInput{
				ListingID: "507f1f77bcf86cd799439011",
				StartDate: end,
				EndDate:   start,
				ChargeID:  "ch_abc123",
			},
			wantError: true,
		},
		{
			name: "end equals start",
			input: &model.ReservationInput{
				ListingID: "507f1f77bcf86cd799439011",
				StartDate: start,
				EndDate:   start,
				ChargeID:  "ch_abc123",
			},
			wantError: true,
		},
		{
			name: "window entirely in the past",
			input: &model.ReservationInput{
				ListingID: "507f1f77bcf86cd799439011",
				StartDate: time.Now().Add(-96 * time.Hour),
				EndDate:   time.Now().Add(-48 * time.Hour),
				ChargeID:  "ch_abc123",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCreate(tt.input)
			if tt.wantError && err == nil {
				t.Errorf("ValidateCreate() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("ValidateCreate() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateBlock(t *testing.T) {
	v := newTestValidator()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(72 * time.Hour)

	tests := []struct {
		name      string
		input     *model.BlockInput
		wantError bool
	}{
		{
			name: "valid block without reason",
			input: &model.BlockInput{
				ListingID: "507f1f77bcf86cd799439011",
				StartDate: start,
				EndDate:   end,
			},
			wantError: false,
		},
		{
			name: "valid block with reason",
			input: &model.BlockInput{
				ListingID: "507f1f77bcf86cd799439011",
				StartDate: start,
				EndDate:   end,
				Reason:    "Plumbing repairs",
			},
			wantError: false,
		},
		{
			name: "missing listing id",
			input: &model.BlockInput{
				StartDate: start,
				EndDate:   end,
			},
			wantError: true,
		},
		{
			name: "end before start",
			input: &model.BlockInput{
				ListingID: "507f1f77bcf86cd799439011",
				StartDate: end,
				EndDate:   start,
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBlock(tt.input)
			if tt.wantError && err == nil {
				t.Errorf("ValidateBlock() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("ValidateBlock() unexpected error: %v", err)
			}
		})
	}
}
