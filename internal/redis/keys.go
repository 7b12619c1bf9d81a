package redisx

import "fmt"

const ns = "rifago:v1"

func KeyRaffleSummary(raffleID string) string {
	return fmt.Sprintf("%s:raffle:%s:summary", ns, raffleID)
}

func KeyRaffleAvailability(raffleID string) string {
	return fmt.Sprintf("%s:raffle:%s:availability", ns, raffleID)
}

func KeyRaffleGrid(raffleID string) string {
	return fmt.Sprintf("%s:raffle:%s:grid", ns, raffleID)
}

func KeyTopBuyers(raffleID string) string {
	return fmt.Sprintf("%s:raffle:%s:topbuyers", ns, raffleID)
}

// KeyBonusNumber stores the bonus number for one calendar day (day is
// formatted as 2006-01-02).
func KeyBonusNumber(raffleID, day string) string {
	return fmt.Sprintf("%s:raffle:%s:bonus:%s", ns, raffleID, day)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelRafflesChanged() string {
	return ns + ":raffles:changed"
}
