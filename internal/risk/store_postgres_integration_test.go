//go:build integration

package risk_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fincore/internal/domain"
	"fincore/internal/risk"
	"fincore/pkg/platform/sentinel"
	"fincore/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *risk.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = risk.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "aml_alerts", "wallet_risk", "risk_screenings")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestWalletRiskUpsert() {
	ctx := context.Background()
	address := "0x" + uuid.NewString()

	first := domain.WalletRisk{
		Address:   address,
		Network:   "ethereum",
		RiskScore: 31,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.SaveWalletRisk(ctx, first))

	second := first
	second.RiskScore = 74
	second.IsBlacklisted = true
	second.UpdatedAt = first.UpdatedAt.Add(time.Hour)
	s.Require().NoError(s.store.SaveWalletRisk(ctx, second))

	found, err := s.store.FindWalletRisk(ctx, address)
	s.Require().NoError(err)
	s.Equal(74, found.RiskScore)
	s.True(found.IsBlacklisted)
	s.WithinDuration(second.UpdatedAt, found.UpdatedAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestFindUnknownWallet() {
	_, err := s.store.FindWalletRisk(context.Background(), "0x"+uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAlertsListInInsertionOrder() {
	ctx := context.Background()
	address := "0x" + uuid.NewString()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i, alertType := range []domain.AlertType{domain.AlertTypeRiskIncrease, domain.AlertTypeThresholdExceeded} {
		alert := domain.AMLAlert{
			ID:            uuid.NewString(),
			WalletAddress: address,
			Network:       "ethereum",
			Type:          alertType,
			Severity:      domain.SeverityHigh,
			PreviousScore: 40 + 15*i,
			NewScore:      55 + 15*i,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}
		s.Require().NoError(s.store.InsertAlert(ctx, alert))
	}

	alerts, err := s.store.ListAlertsByWallet(ctx, address)
	s.Require().NoError(err)
	s.Require().Len(alerts, 2)
	s.Equal(domain.AlertTypeRiskIncrease, alerts[0].Type)
	s.Equal(domain.AlertTypeThresholdExceeded, alerts[1].Type)
	s.Equal(55, alerts[0].NewScore)

	other, err := s.store.ListAlertsByWallet(ctx, "0x"+uuid.NewString())
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *PostgresStoreSuite) TestScreeningSignalsRoundTrip() {
	ctx := context.Background()

	entry := domain.ScreeningEntry{
		ID:            uuid.NewString(),
		WalletAddress: "0x" + uuid.NewString(),
		Network:       "tron",
		RiskScore:     62,
		Signals:       map[string]float64{"mixer": 0.41, "exchange": 0.59},
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.InsertScreening(ctx, entry))

	var signals map[string]float64
	row := s.postgres.DB.Pool.QueryRow(ctx,
		`SELECT signals FROM risk_screenings WHERE id = $1`, entry.ID)
	s.Require().NoError(row.Scan(&signals))
	s.Equal(entry.Signals, signals)
}
