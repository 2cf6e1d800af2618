package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeClockNotFound, "clock missing")
	target := New(CodeClockNotFound, "different message")

	if !errors.Is(err, target) {
		t.Fatal("expected errors with matching codes to match")
	}

	other := New(CodeTurnNotFound, "turn missing")
	if errors.Is(err, other) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeUnknown, "save failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be traversable")
	}
	if err.Error() != "save failed" {
		t.Fatalf("message = %q, want %q", err.Error(), "save failed")
	}
}

func TestWithMetadataCarriesContext(t *testing.T) {
	err := WithMetadata(CodeCrewInsufficientMomentum, "insufficient momentum", map[string]string{
		"Have": "1",
		"Need": "3",
	})
	if err.Metadata["Have"] != "1" || err.Metadata["Need"] != "3" {
		t.Fatalf("unexpected metadata: %v", err.Metadata)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeConsequenceIncomplete, codes.InvalidArgument},
		{CodeDiceInvalidSpec, codes.InvalidArgument},
		{CodeTurnInvalidTransition, codes.FailedPrecondition},
		{CodeStimsLocked, codes.FailedPrecondition},
		{CodeCrewRallyUnavailable, codes.FailedPrecondition},
		{CodeClockNotFound, codes.NotFound},
		{CodeUnknown, codes.Internal},
		{Code("SOMETHING_ELSE"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.GRPCCode(); got != tt.want {
				t.Fatalf("GRPCCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToGRPCStatusCarriesReason(t *testing.T) {
	err := WithMetadata(CodeStimsLocked, "addiction clock is full", map[string]string{
		"CrewID": "crew-1",
	})

	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected a grpc status error")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("status code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	if st.Message() != "addiction clock is full" {
		t.Fatalf("status message = %q", st.Message())
	}
	if len(st.Details()) != 1 {
		t.Fatalf("expected 1 detail, got %d: %v", len(st.Details()), st.Details())
	}
}

func ExampleNew() {
	err := New(CodeClockNotFound, "clock missing")
	fmt.Println(err.Code, err.Error())
	// Output: CLOCK_NOT_FOUND clock missing
}
