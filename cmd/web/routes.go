package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lmoretti/highlander/internal/httputil"
	"github.com/lmoretti/highlander/internal/middleware"
	"github.com/lmoretti/highlander/internal/pool"
	"github.com/lmoretti/highlander/internal/service"
	"github.com/lmoretti/highlander/internal/store"
)

func newRouter(database *sqlx.DB, gameStore *store.GameStore, fixtureStore *store.FixtureStore, deadlines *service.DeadlineService, cfg service.Config, adminKey string) http.Handler {
	games := service.NewGameService(database, gameStore, fixtureStore, cfg)
	selections := service.NewSelectionService(database, gameStore, fixtureStore)
	rounds := service.NewRoundService(database, gameStore, fixtureStore)
	fixtures := service.NewFixtureService(database, fixtureStore)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public reads and player writes.

	r.Get("/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		gameID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid game ID", err)
			return
		}
		overview, err := games.GetGameOverview(r.Context(), gameID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Game not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to get game", err)
			return
		}
		httputil.JSON(w, http.StatusOK, overview)
	})

	r.Get("/teams", func(w http.ResponseWriter, r *http.Request) {
		teams, err := fixtures.ListTeams(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list teams", err)
			return
		}
		httputil.JSON(w, http.StatusOK, teams)
	})

	r.Get("/tickets/{id}", func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid ticket ID", err)
			return
		}
		status, err := games.GetTicketStatus(r.Context(), ticketID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Ticket not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to get ticket status", err)
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]pool.TicketStatus{"status": status})
	})

	r.Post("/games/{id}/tickets", func(w http.ResponseWriter, r *http.Request) {
		gameID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid game ID", err)
			return
		}
		var req struct {
			OwnerID string `json:"ownerId"`
			Label   string `json:"label"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		ownerID, err := uuid.Parse(req.OwnerID)
		if err != nil {
			httputil.BadRequest(w, "Invalid owner ID", err)
			return
		}
		ticket, err := games.RegisterTicket(r.Context(), gameID, ownerID, req.Label)
		if err != nil {
			writeEngineError(w, err, "Failed to register ticket")
			return
		}
		httputil.JSON(w, http.StatusCreated, ticket)
	})

	r.Post("/tickets/{id}/selections", func(w http.ResponseWriter, r *http.Request) {
		ticketID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid ticket ID", err)
			return
		}
		var req struct {
			TeamID string `json:"teamId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		teamID, err := uuid.Parse(req.TeamID)
		if err != nil {
			httputil.BadRequest(w, "Invalid team ID", err)
			return
		}
		selection, err := selections.Submit(r.Context(), ticketID, teamID)
		if err != nil {
			writeEngineError(w, err, "Failed to submit selection")
			return
		}
		httputil.JSON(w, http.StatusOK, selection)
	})

	// Admin surface: game lifecycle, deadlines, resolution, fixture feeds.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminKey(adminKey))

		r.Post("/games", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Name       string `json:"name"`
				StartRound int    `json:"startRound"`
				FinalRound int    `json:"finalRound"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			game, err := games.CreateGame(r.Context(), req.Name, req.StartRound, req.FinalRound)
			if err != nil {
				httputil.BadRequest(w, err.Error(), err)
				return
			}
			httputil.JSON(w, http.StatusCreated, game)
		})

		r.Post("/games/{id}/activate", func(w http.ResponseWriter, r *http.Request) {
			gameID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game ID", err)
				return
			}
			game, err := games.ActivateGame(r.Context(), gameID)
			if err != nil {
				writeEngineError(w, err, "Failed to activate game")
				return
			}
			httputil.JSON(w, http.StatusOK, game)
		})

		r.Put("/games/{id}/deadline", func(w http.ResponseWriter, r *http.Request) {
			gameID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game ID", err)
				return
			}
			var req struct {
				Deadline string `json:"deadline"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			deadline, err := time.Parse(time.RFC3339, req.Deadline)
			if err != nil {
				httputil.BadRequest(w, "Invalid deadline timestamp", err)
				return
			}
			if err := deadlines.SetDeadline(r.Context(), gameID, deadline); err != nil {
				if errors.Is(err, pool.ErrDeadlineNotFuture) || errors.Is(err, pool.ErrDeadlineTooFar) {
					httputil.BadRequest(w, err.Error(), err)
					return
				}
				writeEngineError(w, err, "Failed to set deadline")
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		r.Post("/games/{id}/lock", func(w http.ResponseWriter, r *http.Request) {
			gameID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game ID", err)
				return
			}
			if err := deadlines.LockRound(r.Context(), gameID); err != nil {
				writeEngineError(w, err, "Failed to lock round")
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		r.Post("/games/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
			gameID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game ID", err)
				return
			}
			var req struct {
				Round int `json:"round"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			outcome, err := rounds.ResolveRound(r.Context(), gameID, req.Round)
			if err != nil {
				writeEngineError(w, err, "Failed to resolve round")
				return
			}
			httputil.JSON(w, http.StatusOK, outcome)
		})

		r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Teams []service.TeamInput `json:"teams"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			teams, err := fixtures.ImportTeams(r.Context(), req.Teams)
			if err != nil {
				httputil.InternalServerError(w, "Failed to import teams", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, teams)
		})

		r.Post("/matches", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Round    int `json:"round"`
				Fixtures []struct {
					HomeTeamID string `json:"homeTeamId"`
					AwayTeamID string `json:"awayTeamId"`
					KickoffAt  string `json:"kickoffAt"`
					Venue      string `json:"venue"`
				} `json:"fixtures"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			inputs := make([]service.FixtureInput, 0, len(req.Fixtures))
			for _, f := range req.Fixtures {
				homeID, err := uuid.Parse(f.HomeTeamID)
				if err != nil {
					httputil.BadRequest(w, "Invalid home team ID", err)
					return
				}
				awayID, err := uuid.Parse(f.AwayTeamID)
				if err != nil {
					httputil.BadRequest(w, "Invalid away team ID", err)
					return
				}
				in := service.FixtureInput{HomeTeamID: homeID, AwayTeamID: awayID, Venue: f.Venue}
				if f.KickoffAt != "" {
					kickoff, err := time.Parse(time.RFC3339, f.KickoffAt)
					if err != nil {
						httputil.BadRequest(w, "Invalid kickoff timestamp", err)
						return
					}
					in.KickoffAt = &kickoff
				}
				inputs = append(inputs, in)
			}
			matches, err := fixtures.ImportFixtures(r.Context(), req.Round, inputs)
			if err != nil {
				httputil.InternalServerError(w, "Failed to import fixtures", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, matches)
		})

		r.Put("/matches/{id}/result", func(w http.ResponseWriter, r *http.Request) {
			matchID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			var req struct {
				HomeScore int `json:"homeScore"`
				AwayScore int `json:"awayScore"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			match, err := fixtures.RecordResult(r.Context(), matchID, req.HomeScore, req.AwayScore)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					httputil.NotFound(w, "Match not found", err)
					return
				}
				httputil.BadRequest(w, err.Error(), err)
				return
			}
			httputil.JSON(w, http.StatusOK, match)
		})
	})

	return r
}

// writeEngineError maps typed engine rejections onto the API contract:
// rejections with a reason code come back as 409, unknown rows as 404,
// everything else as 500.
func writeEngineError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, "Not found", err)
		return
	}
	if reason := pool.ReasonOf(err); reason != "" {
		httputil.Conflict(w, reason, err)
		return
	}
	httputil.InternalServerError(w, msg, err)
}
