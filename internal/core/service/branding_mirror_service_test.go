package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

func savedEvent(partnerID string) ports.BrandingSavedEvent {
	return ports.BrandingSavedEvent{
		PartnerID: partnerID,
		SavedBy:   partnerID,
		Config:    &domain.BrandingConfig{PartnerID: partnerID, PrimaryColor: "#0055ff"},
		SavedAt:   time.Now().UTC(),
	}
}

func TestBrandingMirror_Process_HappyPath(t *testing.T) {
	lic := newStubLicenseRepo()
	lic.byPartner["p1"] = &domain.PartnerLicense{PartnerID: "p1", Tier: "pro"}
	audit := &stubAudit{}

	svc := NewBrandingMirrorService(lic, audit, 0, zerolog.Nop())
	if err := svc.Process(context.Background(), savedEvent("p1")); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := lic.byPartner["p1"].BrandingConfig; got == nil || got.PrimaryColor != "#0055ff" {
		t.Errorf("expected license blob mirrored, got %+v", got)
	}
	if len(audit.entries) != 1 || !audit.entries[0].Mirrored {
		t.Errorf("expected one mirrored audit entry, got %+v", audit.entries)
	}
}

func TestBrandingMirror_Process_NoLicense(t *testing.T) {
	audit := &stubAudit{}
	svc := NewBrandingMirrorService(newStubLicenseRepo(), audit, 0, zerolog.Nop())

	if err := svc.Process(context.Background(), savedEvent("p2")); err != nil {
		t.Fatalf("missing license is not an error, got: %v", err)
	}
	if len(audit.entries) != 1 || audit.entries[0].Mirrored {
		t.Errorf("expected an unmirrored audit entry, got %+v", audit.entries)
	}
}

func TestBrandingMirror_Process_LicenseFailure(t *testing.T) {
	lic := newStubLicenseRepo()
	lic.updateErr = errors.New("write conflict")
	audit := &stubAudit{}

	svc := NewBrandingMirrorService(lic, audit, 0, zerolog.Nop())
	err := svc.Process(context.Background(), savedEvent("p1"))
	if err == nil {
		t.Fatal("expected mirror error")
	}
	if len(audit.entries) != 1 {
		t.Errorf("audit entry should still be written")
	}
}

func TestBrandingMirror_Process_AuditFailureIsNonFatal(t *testing.T) {
	lic := newStubLicenseRepo()
	lic.byPartner["p1"] = &domain.PartnerLicense{PartnerID: "p1"}

	svc := NewBrandingMirrorService(lic, &stubAudit{err: errors.New("mongo down")}, 0, zerolog.Nop())
	if err := svc.Process(context.Background(), savedEvent("p1")); err != nil {
		t.Fatalf("audit failure must not fail the job, got %v", err)
	}
}

func TestBrandingMirror_Process_WithoutAudit(t *testing.T) {
	svc := NewBrandingMirrorService(newStubLicenseRepo(), nil, 0, zerolog.Nop())
	if err := svc.Process(context.Background(), savedEvent("p1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
