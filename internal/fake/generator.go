// Package fake provides utilities for generating random player accounts for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/playerhub/internal/hub"
	"github.com/woozymasta/playerhub/internal/models"
)

// GenerateAccounts creates up to count randomized player accounts in the local
// region and signs roughly a third of them in. Username collisions are skipped.
// It returns the number of accounts actually created.
func GenerateAccounts(svc *hub.Service, count int) int {
	firstNames := []string{"Allen", "Bill", "Crystal", "Dana", "Elena", "Frank", "Grace", "Hiro", "Ivan", "Julia", "Kofi", "Lena"}
	lastNames := []string{"White", "Johns", "Reigo", "Novak", "Silva", "Tanaka", "Okafor", "Larsen", "Moreau", "Petrov"}

	reg := svc.Registry()
	region := svc.Region()

	// Cache for ip reuse
	var ipHistory []string

	created := 0
	for i := 0; i < count; i++ {
		first := firstNames[rand.Intn(len(firstNames))]
		last := lastNames[rand.Intn(len(lastNames))]

		var ip string
		// 20% chance for reuse IP address
		if len(ipHistory) > 0 && rand.Float32() < 0.2 {
			ip = ipHistory[rand.Intn(len(ipHistory))]
		} else {
			ip = fmt.Sprintf("%d.%d.%d.%d", rand.Intn(220)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255))
			ipHistory = append(ipHistory, ip)
		}

		fields := models.AccountFields{
			FirstName: first,
			LastName:  last,
			Username:  username(first, last),
			Password:  fmt.Sprintf("pass%04d", rand.Intn(10000)),
			IPAddress: ip,
			Age:       13 + rand.Intn(60),
		}

		before := reg.Len()
		svc.CreateAccount(fields)
		if reg.Len() == before {
			log.Debug().Str("username", fields.Username).Msg("Skipped duplicate fake account")
			continue
		}
		created++

		if rand.Float32() < 0.3 { // 30% chance online
			svc.SignIn(fields.Username, fields.Password, ip)
		}
	}

	log.Info().Str("region", region.Code).Int("created", created).Msg("Fake accounts generated")

	return created
}

// username builds a valid player username such as "allenw482".
func username(first, last string) string {
	name := fmt.Sprintf("%s%s%d", strings.ToLower(first), strings.ToLower(last[:1]), rand.Intn(1000))
	for len(name) < models.MinUsernameLen {
		name += fmt.Sprint(rand.Intn(10))
	}
	if len(name) > models.MaxUsernameLen {
		name = name[:models.MaxUsernameLen]
	}

	return name
}
