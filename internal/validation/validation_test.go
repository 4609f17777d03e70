package validation

import (
	"errors"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateHour(t *testing.T) {
	tests := []struct {
		hour    int
		wantErr bool
	}{
		{0, false},
		{19, false},
		{23, false},
		{-1, true},
		{24, true},
	}

	for _, tt := range tests {
		err := ValidateHour("REMINDER_HOUR", tt.hour)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateHour(%d) error = %v, wantErr %v", tt.hour, err, tt.wantErr)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidateEmail("not-an-address")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %v is not a ValidationError", err)
	}
	if verr.Field != "email" || err.Error() != "email: invalid email format" {
		t.Errorf("error = %q", err.Error())
	}
}
