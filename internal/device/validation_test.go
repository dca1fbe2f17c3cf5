package device

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid name", input: "iPhone 15", wantErr: nil},
		{name: "valid name with punctuation", input: "Galaxy (S24) Ultra", wantErr: nil},
		{name: "empty name", input: "", wantErr: ErrInvalidName},
		{name: "whitespace only", input: "   ", wantErr: ErrInvalidName},
		{name: "name at max length", input: strings.Repeat("a", maxNameLength), wantErr: nil},
		{name: "multibyte at max length", input: strings.Repeat("é", maxNameLength), wantErr: nil},
		{name: "name exceeds max length", input: strings.Repeat("a", maxNameLength+1), wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateName(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateName(%q) = %v, want kind %v", tt.input, err, ErrValidation)
			}
		})
	}
}

func TestValidateBrand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid brand", input: "Apple", wantErr: nil},
		{name: "empty brand", input: "", wantErr: ErrInvalidBrand},
		{name: "tab only", input: "\t", wantErr: ErrInvalidBrand},
		{name: "brand at max length", input: strings.Repeat("b", maxBrandLength), wantErr: nil},
		{name: "brand exceeds max length", input: strings.Repeat("b", maxBrandLength+1), wantErr: ErrInvalidBrand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBrand(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateBrand(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateBrand(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePage(t *testing.T) {
	tests := []struct {
		name    string
		page    int
		size    int
		wantErr bool
	}{
		{name: "first page", page: 0, size: DefaultPageSize},
		{name: "size one", page: 3, size: 1},
		{name: "max size", page: 0, size: MaxPageSize},
		{name: "negative page", page: -1, size: 10, wantErr: true},
		{name: "zero size", page: 0, size: 0, wantErr: true},
		{name: "size over max", page: 0, size: MaxPageSize + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePage(tt.page, tt.size)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPage) {
					t.Errorf("ValidatePage(%d, %d) = %v, want %v", tt.page, tt.size, err, ErrInvalidPage)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidatePage(%d, %d) = %v, want nil", tt.page, tt.size, err)
			}
		})
	}
}

func TestValidateState(t *testing.T) {
	for _, s := range AllStates() {
		if err := ValidateState(s); err != nil {
			t.Errorf("ValidateState(%q) = %v, want nil", s, err)
		}
	}
	if err := ValidateState("available"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ValidateState(lowercase) = %v, want %v", err, ErrInvalidState)
	}
}
