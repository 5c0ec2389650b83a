// Package hub exposes the player and administrator operations of a region server.
// Every outcome is returned as human-readable text; registry and protocol errors
// never escape as Go errors to the control surface.
package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/woozymasta/playerhub/internal/audit"
	"github.com/woozymasta/playerhub/internal/models"
	"github.com/woozymasta/playerhub/internal/region"
	"github.com/woozymasta/playerhub/internal/registry"
	"github.com/woozymasta/playerhub/internal/status"
)

// Result texts shared by several operations.
const (
	MsgAccountExists       = "Player with that username already exists!"
	MsgInvalidUsername     = "Username must be between 6 and 15 characters long"
	MsgInvalidPassword     = "Password must be at least 6 characters long"
	MsgAdminSignedIn       = "Successfully signed in admin!"
	MsgAdminSignedOut      = "Successfully signed out admin"
	MsgAdminAlreadyIn      = "Admin is already signed in"
	MsgAdminAlreadyOut     = "Admin is already signed out"
	MsgAdminNotFound       = "Admin with that password combination does not exist"
	MsgIncorrectAdminCreds = "Incorrect credentials for Admin!"
	MsgStatusUnavailable   = "Unrecognized Error while requesting player status!"
)

// Collector runs one status aggregation round.
type Collector interface {
	Collect(ctx context.Context) status.Report
}

// Service is the region server's operation surface.
type Service struct {
	registry  *registry.Registry
	collector Collector
	sink      audit.Sink
	log       zerolog.Logger
	region    region.Identity
}

// New creates a service for the local region. A nil sink discards audit records.
func New(local region.Identity, reg *registry.Registry, collector Collector, sink audit.Sink, log zerolog.Logger) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}

	return &Service{
		registry:  reg,
		collector: collector,
		sink:      sink,
		log:       log,
		region:    local,
	}
}

// Region returns the local region identity.
func (s *Service) Region() region.Identity {
	return s.region
}

// Registry returns the local account registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// SeedAdmin creates the reserved region administrator account.
func (s *Service) SeedAdmin() {
	s.CreateAccount(models.AccountFields{
		FirstName: "Admin",
		LastName:  "Admin",
		Username:  models.AdminUsername,
		Password:  models.AdminPassword,
		IPAddress: s.region.DefaultIP,
	})
}

// Seed creates the administrator and the stock player accounts.
func (s *Service) Seed() {
	s.SeedAdmin()

	stock := []models.AccountFields{
		{FirstName: "Allen", LastName: "White", Username: "whiteallen7", Password: "password", Age: 23},
		{FirstName: "Bill", LastName: "Johns", Username: "billy20", Password: "password", Age: 48},
		{FirstName: "Crystal", LastName: "Reigo", Username: "petula71", Password: "password", Age: 35},
	}
	for _, f := range stock {
		f.IPAddress = s.region.DefaultIP
		s.CreateAccount(f)
	}
}

// CreateAccount validates and stores a new player account.
func (s *Service) CreateAccount(f models.AccountFields) string {
	if f.IPAddress == "" {
		f.IPAddress = s.region.DefaultIP
	}
	s.sink.Record("Initiating CREATEACCOUNT for player", f.IPAddress)

	var msg string
	err := s.registry.Create(f)
	switch {
	case err == nil:
		msg = fmt.Sprintf("Successfully created account for player with username -- '%s'", f.Username)
	case errors.Is(err, registry.ErrAccountExists):
		msg = MsgAccountExists
	case errors.Is(err, registry.ErrInvalidUsername):
		msg = MsgInvalidUsername
	case errors.Is(err, registry.ErrInvalidPassword):
		msg = MsgInvalidPassword
	default:
		msg = "An Error was encountered!"
	}

	return s.finish("create", f.Username, f.IPAddress, msg, err)
}

// SignIn transitions a player account to online.
func (s *Service) SignIn(username, password, ip string) string {
	s.sink.Record("Initiating SIGNIN for player", ip)

	if username == models.AdminUsername {
		return s.finish("sign-in", username, ip, notFound(username), registry.ErrAccountNotFound)
	}

	var msg string
	err := s.registry.SignIn(username, password)
	switch {
	case err == nil:
		msg = fmt.Sprintf("Successfully signed in player with username -- '%s'", username)
	case errors.Is(err, registry.ErrAlreadyOnline):
		msg = fmt.Sprintf("Player '%s' is already signed in", username)
	case errors.Is(err, registry.ErrCredentialMismatch):
		msg = fmt.Sprintf("Player with username '%s' and that password combination does not exist", username)
	default:
		msg = notFound(username)
	}

	return s.finish("sign-in", username, ip, msg, err)
}

// SignOut transitions a player account to offline.
func (s *Service) SignOut(username, ip string) string {
	s.sink.Record("Initiating SIGNOUT for player", ip)

	if username == models.AdminUsername {
		return s.finish("sign-out", username, ip, notFound(username), registry.ErrAccountNotFound)
	}

	var msg string
	err := s.registry.SignOut(username)
	switch {
	case err == nil:
		msg = fmt.Sprintf("Successfully signed out player with username -- '%s'", username)
	case errors.Is(err, registry.ErrAlreadyOffline):
		msg = fmt.Sprintf("Player '%s' is already signed out", username)
	default:
		msg = notFound(username)
	}

	return s.finish("sign-out", username, ip, msg, err)
}

// AdminSignIn signs the administrator in. Any pair other than the reserved one
// gets the same generic answer, so usernames cannot be probed.
func (s *Service) AdminSignIn(username, password, ip string) string {
	s.sink.Record("Initiating SIGNIN for admin", ip)

	creds := models.Credentials{Username: username, Password: password}
	if creds.Kind() != models.KindAdmin {
		return s.finish("admin-sign-in", username, ip, MsgAdminNotFound, registry.ErrAccountNotFound)
	}

	var msg string
	err := s.registry.SignIn(username, password)
	switch {
	case err == nil:
		msg = MsgAdminSignedIn
	case errors.Is(err, registry.ErrAlreadyOnline):
		msg = MsgAdminAlreadyIn
	default:
		msg = MsgAdminNotFound
	}

	return s.finish("admin-sign-in", username, ip, msg, err)
}

// AdminSignOut signs the administrator out.
func (s *Service) AdminSignOut(username, ip string) string {
	s.sink.Record("Initiating SIGNOUT for admin", ip)

	if username != models.AdminUsername {
		return s.finish("admin-sign-out", username, ip, MsgAdminNotFound, registry.ErrAccountNotFound)
	}

	var msg string
	err := s.registry.SignOut(username)
	switch {
	case err == nil:
		msg = MsgAdminSignedOut
	case errors.Is(err, registry.ErrAlreadyOffline):
		msg = MsgAdminAlreadyOut
	default:
		msg = MsgAdminNotFound
	}

	return s.finish("admin-sign-out", username, ip, msg, err)
}

// AdminGetGlobalStatus returns the merged multi-line status report of every region.
// The fan-out only starts for the reserved administrator pair.
func (s *Service) AdminGetGlobalStatus(ctx context.Context, username, password, ip string) string {
	creds := models.Credentials{Username: username, Password: password}
	if creds.Kind() != models.KindAdmin {
		s.sink.Record(MsgIncorrectAdminCreds, ip)
		s.log.Warn().Str("ip", ip).Str("username", username).Msg("Global status denied")
		return MsgIncorrectAdminCreds
	}

	if acc, ok := s.registry.Get(models.AdminUsername); !ok || acc.Kind != models.KindAdmin {
		s.sink.Record(MsgStatusUnavailable, ip)
		return MsgStatusUnavailable
	}

	report := s.collector.Collect(ctx)
	text := report.String()

	s.sink.Record(text, ip)
	s.log.Info().
		Str("ip", ip).
		Str("round", report.Round).
		Int("regions", len(report.Results)).
		Msg("Global status served")

	return text
}

// finish records and logs the outcome of an account operation.
func (s *Service) finish(op, username, ip, msg string, err error) string {
	s.sink.Record(msg, ip)

	event := s.log.Info()
	if err != nil {
		event = s.log.Debug().AnErr("outcome", err)
	}
	event.
		Str("op", op).
		Str("username", username).
		Str("ip", ip).
		Msg(msg)

	return msg
}

func notFound(username string) string {
	return fmt.Sprintf("Player with username '%s' does not exist", username)
}
