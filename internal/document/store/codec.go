// Package store persists verification records. Identity values are sealed
// with secretbox before they reach any backend.
package store

import (
	"fmt"
	"time"

	"idverify/internal/document/models"
	"idverify/pkg/platform/secrets"
)

// sealedRecord is the at-rest form shared by every backend.
type sealedRecord struct {
	RequestID   string               `json:"request_id"`
	Subject     string               `json:"subject,omitempty"`
	FirstName   string               `json:"first_name"`
	LastName    string               `json:"last_name"`
	IDNumber    string               `json:"id_number"`
	Nationality string               `json:"nationality"`
	SelfieHash  string               `json:"selfie_hash"`
	IDCardHash  string               `json:"id_card_hash"`
	Result      models.ResultSummary `json:"result"`
	CreatedAt   time.Time            `json:"created_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

type codec struct {
	sealer *secrets.Sealer
}

func (c codec) seal(r *models.VerificationRecord) (*sealedRecord, error) {
	out := &sealedRecord{
		RequestID:  r.RequestID,
		Subject:    r.Subject,
		SelfieHash: r.SelfieHash,
		IDCardHash: r.IDCardHash,
		Result:     r.Result,
		CreatedAt:  r.CreatedAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
	}
	for _, f := range []struct {
		dst   *string
		plain string
	}{
		{&out.FirstName, r.FirstName},
		{&out.LastName, r.LastName},
		{&out.IDNumber, r.IDNumber},
		{&out.Nationality, r.Nationality},
	} {
		sealed, err := c.sealer.Seal(f.plain)
		if err != nil {
			return nil, fmt.Errorf("seal record %s: %w", r.RequestID, err)
		}
		*f.dst = sealed
	}
	return out, nil
}

func (c codec) open(s *sealedRecord) (*models.VerificationRecord, error) {
	out := &models.VerificationRecord{
		RequestID:  s.RequestID,
		Subject:    s.Subject,
		SelfieHash: s.SelfieHash,
		IDCardHash: s.IDCardHash,
		Result:     s.Result,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
	}
	for _, f := range []struct {
		dst    *string
		sealed string
	}{
		{&out.FirstName, s.FirstName},
		{&out.LastName, s.LastName},
		{&out.IDNumber, s.IDNumber},
		{&out.Nationality, s.Nationality},
	} {
		plain, err := c.sealer.Open(f.sealed)
		if err != nil {
			return nil, fmt.Errorf("open record %s: %w", s.RequestID, err)
		}
		*f.dst = plain
	}
	return out, nil
}
