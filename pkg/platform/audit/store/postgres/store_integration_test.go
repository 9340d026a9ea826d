//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "idverify/pkg/platform/audit"
	"idverify/pkg/platform/audit/store/postgres"
	txcontext "idverify/pkg/platform/tx"
	"idverify/pkg/testutil/containers"
)

type AuditPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestAuditPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditPostgresSuite))
}

func (s *AuditPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *AuditPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func event(requestID string, at time.Time) audit.Event {
	return audit.Event{
		Timestamp:     at.UTC().Truncate(time.Microsecond),
		Subject:       "portal",
		Action:        string(audit.EventDocumentVerified),
		RequestID:     requestID,
		Decision:      "match",
		SubjectIDHash: "9f86d081",
	}
}

func (s *AuditPostgresSuite) TestAppendAndList() {
	ctx := context.Background()
	now := time.Now()
	s.Require().NoError(s.store.Append(ctx, event("r1", now)))
	s.Require().NoError(s.store.Append(ctx, event("r2", now.Add(time.Second))))

	events, err := s.store.ListByRequest(ctx, "r1")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal("9f86d081", events[0].SubjectIDHash)

	recent, err := s.store.ListRecent(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal("r2", recent[0].RequestID)
}

func (s *AuditPostgresSuite) TestAppendWithIDIsIdempotent() {
	ctx := context.Background()
	id := uuid.New()
	s.Require().NoError(s.store.AppendWithID(ctx, id, event("r1", time.Now())))
	s.Require().NoError(s.store.AppendWithID(ctx, id, event("r1", time.Now())))

	events, err := s.store.ListByRequest(ctx, "r1")
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *AuditPostgresSuite) TestAppendJoinsContextTransaction() {
	ctx := context.Background()
	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Append(txcontext.WithTx(ctx, tx), event("rolled-back", time.Now())))
	s.Require().NoError(tx.Rollback())

	events, err := s.store.ListByRequest(ctx, "rolled-back")
	s.Require().NoError(err)
	s.Empty(events)
}
