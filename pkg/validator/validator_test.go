package validator

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

type sampleRequest struct {
	Name     string    `validate:"required"`
	BranchID uuid.UUID `validate:"uuid_required"`
}

func TestValidatePassesCompleteRequest(t *testing.T) {
	req := sampleRequest{Name: "Downtown", BranchID: uuid.New()}
	if err := Validate(&req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestValidateReportsFirstFailedField(t *testing.T) {
	req := sampleRequest{BranchID: uuid.New()}
	err := Validate(&req)
	if err == nil {
		t.Fatal("expected a validation error")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Tag != "required" {
		t.Fatalf("expected tag 'required', got %q", ve.Tag)
	}
	if ve.Error() != "validation failed: field 'sampleRequest.Name' failed on tag 'required'" {
		t.Fatalf("unexpected message %q", ve.Error())
	}
}

func TestValidateRejectsZeroUUID(t *testing.T) {
	req := sampleRequest{Name: "Downtown"}
	err := Validate(&req)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if ve.Tag != "uuid_required" {
		t.Fatalf("expected tag 'uuid_required', got %q", ve.Tag)
	}
}
