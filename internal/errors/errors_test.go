package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  NotFound("Trader not found"),
			want: "Trader not found",
		},
		{
			name: "error with cause",
			err:  Wrap(errors.New("connection reset"), ErrCodeUpstream, "The trading platform is unreachable."),
			want: "The trading platform is unreachable.: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := Wrap(cause, ErrCodeTimeout, "Request timed out.")

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wrap() should keep the cause reachable through errors.Is")
	}
	if Wrap(nil, ErrCodeInternal, "unused") != nil {
		t.Errorf("Wrap(nil) should return nil")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want ErrorCode
	}{
		{"not found", NotFound("m"), ErrCodeNotFound},
		{"conflict", Conflict("m"), ErrCodeConflict},
		{"validation", Validation("m"), ErrCodeValidation},
		{"validation field", ValidationField("bank_iban", "m"), ErrCodeValidation},
		{"unauthenticated", Unauthenticated("m"), ErrCodeUnauthenticated},
		{"forbidden", Forbidden("m"), ErrCodeForbidden},
		{"upstream", Upstream("m"), ErrCodeUpstream},
		{"internal", Internal("m"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.want {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.want)
			}
			if tt.err.Message != "m" {
				t.Errorf("Message = %q, want %q", tt.err.Message, "m")
			}
		})
	}

	if f := ValidationField("bank_iban", "m").Field; f != "bank_iban" {
		t.Errorf("ValidationField().Field = %q, want bank_iban", f)
	}
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("approve transaction 11: %w", Conflict("stale"))

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"direct", Conflict("stale"), ErrCodeConflict, true},
		{"wrapped", wrapped, ErrCodeConflict, true},
		{"other code", wrapped, ErrCodeNotFound, false},
		{"plain error", errors.New("boom"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCode(tt.err, tt.code); got != tt.want {
				t.Errorf("HasCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUnauthenticated(t *testing.T) {
	if !IsUnauthenticated(fmt.Errorf("load summary: %w", Unauthenticated("expired"))) {
		t.Errorf("IsUnauthenticated() = false for a wrapped Unauthenticated error")
	}
	if IsUnauthenticated(Forbidden("no")) {
		t.Errorf("IsUnauthenticated() = true for a Forbidden error")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(fmt.Errorf("x: %w", Upstream("down"))); got != ErrCodeUpstream {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeUpstream)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}
