package app

import (
	"hash/maphash"
	"math/rand/v2"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (a *App) loadRoutes() {
	p := a.server.Prefix()

	a.router.HandleFunc("POST "+p+"/game", a.game.NewGame)
	a.router.HandleFunc("GET "+p+"/game/{id}", a.game.Fetch)
	a.router.HandleFunc("POST "+p+"/game/{id}/step", a.game.Step)
	a.router.HandleFunc("POST "+p+"/game/{id}/play", a.game.Play)
	a.router.HandleFunc(p+"/game/{id}/connect", a.game.ConnectWS)
	a.router.HandleFunc("POST "+p+"/evaluate", a.game.Evaluate)
	a.router.HandleFunc("GET "+p+"/stats", a.game.Stats)

	if a.leaderboard != nil {
		a.router.HandleFunc("GET "+p+"/leaderboard", a.leaderboard.List)
	}
}
