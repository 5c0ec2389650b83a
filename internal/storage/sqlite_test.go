package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/woozymasta/playerhub/internal/models"
)

type RepositorySuite struct {
	suite.Suite
	repo *Repository
	path string
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "audit.db")

	repo, err := New(s.path)
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RepositorySuite) TearDownTest() {
	s.NoError(s.repo.Close())
}

func (s *RepositorySuite) TestInsertAndList() {
	s.Require().NoError(s.repo.InsertAudit(models.AuditEntry{Region: "NA", Source: "132.168.2.22", Message: "first"}))
	s.Require().NoError(s.repo.InsertAudit(models.AuditEntry{Region: "EU", Source: "93.168.2.22", CountryCode: "DE", Message: "second"}))
	s.Require().NoError(s.repo.InsertAudit(models.AuditEntry{Region: "NA", Source: "Admin@NA", Message: "third"}))

	all, err := s.repo.RecentAudit("", 10)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("third", all[0].Message)
	s.Equal("first", all[2].Message)
	s.NotZero(all[0].ID)

	eu, err := s.repo.RecentAudit("EU", 10)
	s.Require().NoError(err)
	s.Require().Len(eu, 1)
	s.Equal("DE", eu[0].CountryCode)

	limited, err := s.repo.RecentAudit("", 2)
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *RepositorySuite) TestPruneAudit() {
	old := time.Now().Add(-48 * time.Hour).UTC()
	s.Require().NoError(s.repo.InsertAudit(models.AuditEntry{CreatedAt: old, Region: "NA", Source: "a", Message: "old"}))
	s.Require().NoError(s.repo.InsertAudit(models.AuditEntry{Region: "NA", Source: "a", Message: "new"}))

	n, err := s.repo.PruneAudit(time.Now().Add(-24 * time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	left, err := s.repo.RecentAudit("", 10)
	s.Require().NoError(err)
	s.Require().Len(left, 1)
	s.Equal("new", left[0].Message)
}

func (s *RepositorySuite) TestMigrationsAreIdempotent() {
	s.Require().NoError(s.repo.InsertAudit(models.AuditEntry{Region: "AS", Source: "a", Message: "kept"}))
	s.Require().NoError(s.repo.Close())

	repo, err := New(s.path)
	s.Require().NoError(err)
	s.repo = repo

	entries, err := s.repo.RecentAudit("AS", 10)
	s.Require().NoError(err)
	s.Len(entries, 1)
}
