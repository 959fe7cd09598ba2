package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/GlebRadaev/bountyhub/internal/config"
	"github.com/GlebRadaev/bountyhub/internal/metrics"
	"github.com/GlebRadaev/bountyhub/pkg/evidence"
	"github.com/GlebRadaev/bountyhub/pkg/lock"
)

type ApplicationSuite struct {
	suite.Suite
	app *Application
}

func TestApplication(t *testing.T) {
	suite.Run(t, &ApplicationSuite{})
}

func (s *ApplicationSuite) SetupTest() {
	s.app = New()
}

func (s *ApplicationSuite) TestWait() {
	ctx, cancel := context.WithCancel(context.Background())

	s.app.errCh = make(chan error)
	go func() {
		s.app.errCh <- fmt.Errorf("mock error")
	}()

	err := s.app.Wait(ctx, cancel)

	s.Require().Error(err)
	s.Contains(err.Error(), "mock error")
}

func (s *ApplicationSuite) TestNewLocker_InProcess() {
	locker, err := newLocker(context.Background(), &config.Config{}, metrics.New(prometheus.NewRegistry()))

	s.Require().NoError(err)
	s.IsType(&lock.Memory{}, locker)
}

func (s *ApplicationSuite) TestNewLocker_RedisUnreachable() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	locker, err := newLocker(ctx, &config.Config{Redis: "127.0.0.1:1"}, metrics.New(prometheus.NewRegistry()))

	s.Require().Error(err)
	s.Nil(locker)
}

func (s *ApplicationSuite) TestNewEvidenceStore_Local() {
	store, err := newEvidenceStore(&config.Config{EvidenceDir: s.T().TempDir(), EvidenceMaxBytes: 1024})

	s.Require().NoError(err)
	s.IsType(&evidence.LocalStore{}, store)
}

func (s *ApplicationSuite) TestNewEvidenceStore_S3() {
	store, err := newEvidenceStore(&config.Config{
		EvidenceS3Bucket:   "evidence",
		EvidenceS3Endpoint: "http://127.0.0.1:9000",
		EvidenceS3Region:   "us-east-1",
		EvidenceMaxBytes:   1024,
	})

	s.Require().NoError(err)
	s.IsType(&evidence.S3Store{}, store)
}
