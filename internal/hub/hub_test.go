package hub

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/woozymasta/playerhub/internal/models"
	"github.com/woozymasta/playerhub/internal/region"
	"github.com/woozymasta/playerhub/internal/registry"
	"github.com/woozymasta/playerhub/internal/status"
)

type stubCollector struct {
	report status.Report
	calls  int
	mu     sync.Mutex
}

func (c *stubCollector) Collect(context.Context) status.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.report
}

type recordingSink struct {
	messages []string
	mu       sync.Mutex
}

func (r *recordingSink) Record(message, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

var na = region.Identity{Code: "NA", Label: "NA", DefaultIP: "132.168.2.22", Port: 6789}

type ServiceSuite struct {
	suite.Suite
	collector *stubCollector
	sink      *recordingSink
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.collector = &stubCollector{report: status.Report{Results: []status.Result{
		{Region: "NA", Text: "NA: Online: 0 Offline: 3"},
		{Region: "EU", Text: "EU: Online: 1 Offline: 2"},
	}}}
	s.sink = &recordingSink{}
	s.service = New(na, registry.New(), s.collector, s.sink, zerolog.Nop())
	s.service.Seed()
}

func fields(username, password string) models.AccountFields {
	return models.AccountFields{FirstName: "Test", LastName: "User", Username: username, Password: password, Age: 30}
}

// Player surface

func (s *ServiceSuite) TestSeedData() {
	reg := s.service.Registry()
	s.Equal(4, reg.Len())

	online, offline := reg.CountByStatus()
	s.Equal(0, online)
	s.Equal(3, offline)

	acc, ok := reg.Get("billy20")
	s.Require().True(ok)
	s.Equal("132.168.2.22", acc.IPAddress)
	s.Equal(48, acc.Age)
}

func (s *ServiceSuite) TestCreateAccountMessages() {
	s.Equal("Successfully created account for player with username -- 'newplayer1'",
		s.service.CreateAccount(fields("newplayer1", "password")))
	s.Equal(MsgAccountExists, s.service.CreateAccount(fields("newplayer1", "password")))
	s.Equal(MsgInvalidUsername, s.service.CreateAccount(fields("short", "password")))
	s.Equal(MsgInvalidPassword, s.service.CreateAccount(fields("goodname", "pw")))
	s.Equal(MsgAccountExists, s.service.CreateAccount(fields(models.AdminUsername, models.AdminPassword)))
}

func (s *ServiceSuite) TestCreateAccountDefaultsIP() {
	s.service.CreateAccount(fields("newplayer1", "password"))

	acc, ok := s.service.Registry().Get("newplayer1")
	s.Require().True(ok)
	s.Equal(na.DefaultIP, acc.IPAddress)
}

func (s *ServiceSuite) TestSignInFlow() {
	s.Equal("Successfully signed in player with username -- 'whiteallen7'",
		s.service.SignIn("whiteallen7", "password", "1.2.3.4"))
	s.Equal("Player 'whiteallen7' is already signed in",
		s.service.SignIn("whiteallen7", "password", "1.2.3.4"))
	s.Equal("Player with username 'whiteallen7' and that password combination does not exist",
		s.service.SignIn("whiteallen7", "wrong-password", "1.2.3.4"))
	s.Equal("Player with username 'nobody123' does not exist",
		s.service.SignIn("nobody123", "password", "1.2.3.4"))
}

func (s *ServiceSuite) TestSignOutFlow() {
	s.Equal("Player 'billy20' is already signed out", s.service.SignOut("billy20", "1.2.3.4"))

	s.service.SignIn("billy20", "password", "1.2.3.4")
	s.Equal("Successfully signed out player with username -- 'billy20'", s.service.SignOut("billy20", "1.2.3.4"))
	s.Equal("Player with username 'nobody123' does not exist", s.service.SignOut("nobody123", "1.2.3.4"))
}

func (s *ServiceSuite) TestPlayerSurfaceRefusesAdmin() {
	s.Equal("Player with username 'Admin' does not exist",
		s.service.SignIn(models.AdminUsername, models.AdminPassword, "1.2.3.4"))
	s.Equal("Player with username 'Admin' does not exist", s.service.SignOut(models.AdminUsername, "1.2.3.4"))

	acc, _ := s.service.Registry().Get(models.AdminUsername)
	s.False(acc.Online)
}

func (s *ServiceSuite) TestEmptyUsername() {
	s.Equal("Player with username '' does not exist", s.service.SignIn("", "password", "1.2.3.4"))
}

// Administrator surface

func (s *ServiceSuite) TestAdminSignInOut() {
	s.Equal(MsgAdminAlreadyOut, s.service.AdminSignOut(models.AdminUsername, "1.2.3.4"))
	s.Equal(MsgAdminSignedIn, s.service.AdminSignIn(models.AdminUsername, models.AdminPassword, "1.2.3.4"))
	s.Equal(MsgAdminAlreadyIn, s.service.AdminSignIn(models.AdminUsername, models.AdminPassword, "1.2.3.4"))
	s.Equal(MsgAdminSignedOut, s.service.AdminSignOut(models.AdminUsername, "1.2.3.4"))

	// Admin state is not part of the player tally.
	online, offline := s.service.Registry().CountByStatus()
	s.Equal(0, online)
	s.Equal(3, offline)
}

func (s *ServiceSuite) TestAdminSignInDoesNotEnumerate() {
	s.Equal(MsgAdminNotFound, s.service.AdminSignIn(models.AdminUsername, "wrong", "1.2.3.4"))
	s.Equal(MsgAdminNotFound, s.service.AdminSignIn("whiteallen7", "password", "1.2.3.4"))
	s.Equal(MsgAdminNotFound, s.service.AdminSignOut("whiteallen7", "1.2.3.4"))

	acc, _ := s.service.Registry().Get("whiteallen7")
	s.False(acc.Online)
}

func (s *ServiceSuite) TestGlobalStatusGate() {
	s.Equal(MsgIncorrectAdminCreds, s.service.AdminGetGlobalStatus(context.Background(), models.AdminUsername, "nope", "1.2.3.4"))
	s.Equal(MsgIncorrectAdminCreds, s.service.AdminGetGlobalStatus(context.Background(), "whiteallen7", "password", "1.2.3.4"))
	s.Equal(0, s.collector.calls)

	out := s.service.AdminGetGlobalStatus(context.Background(), models.AdminUsername, models.AdminPassword, "1.2.3.4")
	s.Equal("NA: Online: 0 Offline: 3\nEU: Online: 1 Offline: 2", out)
	s.Equal(1, s.collector.calls)
}

func (s *ServiceSuite) TestGlobalStatusWithoutAdminAccount() {
	svc := New(na, registry.New(), s.collector, nil, zerolog.Nop())
	s.Equal(MsgStatusUnavailable, svc.AdminGetGlobalStatus(context.Background(), models.AdminUsername, models.AdminPassword, "1.2.3.4"))
	s.Equal(0, s.collector.calls)
}

func (s *ServiceSuite) TestOperationsAreAudited() {
	s.sink.messages = nil
	s.service.SignIn("whiteallen7", "password", "1.2.3.4")

	s.Equal([]string{
		"Initiating SIGNIN for player",
		"Successfully signed in player with username -- 'whiteallen7'",
	}, s.sink.messages)
}

func (s *ServiceSuite) TestConcurrentSignInThroughService() {
	const n = 20
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.service.SignIn("petula71", "password", "1.2.3.4")
		}()
	}
	wg.Wait()
	close(results)

	var success int
	for msg := range results {
		if strings.HasPrefix(msg, "Successfully signed in") {
			success++
		} else {
			s.Equal("Player 'petula71' is already signed in", msg)
		}
	}
	s.Equal(1, success)
}

// End to end over real UDP responders.
func TestGlobalStatusEndToEnd(t *testing.T) {
	eu := region.Identity{Code: "EU", Label: "EU", DefaultIP: "93.168.2.22", Port: 6790}
	as := region.Identity{Code: "AS", Label: "AS", DefaultIP: "182.168.2.22", Port: 6791}

	euReg := registry.New()
	euSvc := New(eu, euReg, nil, nil, zerolog.Nop())
	euSvc.Seed()
	euSvc.SignIn("billy20", "password", "93.168.2.22")

	responder := status.NewResponder(eu.Label, euReg, nil, 0, zerolog.Nop())
	require.NoError(t, responder.Listen("127.0.0.1:0"))
	go func() { _ = responder.Serve() }()
	defer func() { _ = responder.Close() }()

	naReg := registry.New()
	targets := []status.Target{
		{Region: na, Local: true},
		{Region: eu, Addr: responder.Addr().String()},
		{Region: as, Addr: "127.0.0.1"},
	}
	agg := status.NewAggregator(targets, naReg, nil, time.Second, 0, zerolog.Nop())
	svc := New(na, naReg, agg, nil, zerolog.Nop())
	svc.SeedAdmin()

	require.True(t, strings.HasPrefix(svc.CreateAccount(fields("whiteallen7", "password")), "Successfully created"))
	require.True(t, strings.HasPrefix(svc.SignIn("whiteallen7", "password", "132.168.2.22"), "Successfully signed in"))

	out := svc.AdminGetGlobalStatus(context.Background(), models.AdminUsername, models.AdminPassword, "132.168.2.22")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3, out)
	assert.Equal(t, "NA: Online: 1 Offline: 0", lines[0])
	assert.Equal(t, "EU: Online: 1 Offline: 2", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "AS: Request to server on port 6791 failed"), lines[2])
}
