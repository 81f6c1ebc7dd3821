package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	api "github.com/okian/charades/internal/adapters/http/api"
	"github.com/okian/charades/internal/adapters/repository"
	"github.com/okian/charades/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeService implements api.Dependencies and api.StatsProvider in memory.
type fakeService struct {
	rounds      map[string]*model.Round
	enqueueOK   bool
	lastPool    float64
	lastForce   bool
	verifyValid bool
}

func newFakeService() *fakeService {
	return &fakeService{
		rounds:      make(map[string]*model.Round),
		enqueueOK:   true,
		verifyValid: true,
	}
}

func (f *fakeService) EnqueuePayout(ctx context.Context, roundID string, prizePool float64, forceContinue bool) (string, bool) {
	f.lastPool = prizePool
	f.lastForce = forceContinue
	if !f.enqueueOK {
		return "", false
	}
	return "job-123", true
}

func (f *fakeService) VerifyRound(ctx context.Context, roundID string) (bool, error) {
	if _, ok := f.rounds[roundID]; !ok {
		return false, repository.ErrRoundNotFound
	}
	return f.verifyValid, nil
}

func (f *fakeService) GetRound(ctx context.Context, roundID string) (*model.Round, error) {
	rnd, ok := f.rounds[roundID]
	if !ok {
		return nil, repository.ErrRoundNotFound
	}
	return rnd.Clone(), nil
}

func (f *fakeService) SaveRound(ctx context.Context, roundID string, rnd *model.Round) error {
	f.rounds[roundID] = rnd.Clone()
	return nil
}

func (f *fakeService) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestMux(svc *fakeService) *http.ServeMux {
	mux := http.NewServeMux()
	server := api.NewServer(svc, svc)
	server.Register(context.Background(), mux)
	return mux
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given the API routes", t, func() {
		mux := newTestMux(newFakeService())

		Convey("When requesting /healthz", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it reports ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When posting to /healthz", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

			Convey("Then the method is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the API routes", t, func() {
		mux := newTestMux(newFakeService())

		Convey("When requesting /stats", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then service stats come back as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"started":true`)
			})
		})
	})
}

func TestRoundEndpoints(t *testing.T) {
	Convey("Given a service with one stored round", t, func() {
		svc := newFakeService()
		svc.rounds["round-1"] = &model.Round{
			RoundID:   "round-1",
			PrizePool: 100,
			Participants: []model.Participant{
				{Username: "alice", CommitmentHash: "abc", Guess: "a guess", Salt: "secret"},
			},
		}
		mux := newTestMux(svc)

		Convey("When fetching the round", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rounds/round-1", nil))

			Convey("Then the snapshot is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"round_id":"round-1"`)
				So(rec.Body.String(), ShouldContainSubstring, `"username":"alice"`)
			})

			Convey("And the salt never leaves the server", func() {
				So(rec.Body.String(), ShouldNotContainSubstring, "secret")
			})
		})

		Convey("When fetching a missing round", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rounds/nope", nil))

			Convey("Then it is a 404 with an error body", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(rec.Body.String(), ShouldContainSubstring, "round_not_found")
			})
		})

		Convey("When storing a round via PUT", func() {
			payload := `{"target_image":"https://img.example/x.jpg","prize_pool":55,"participants":[{"username":"bob","commitment":"ffff"}]}`
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/rounds/round-2", bytes.NewBufferString(payload))
			mux.ServeHTTP(rec, req)

			Convey("Then the round is created with the path ID", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				So(svc.rounds["round-2"], ShouldNotBeNil)
				So(svc.rounds["round-2"].RoundID, ShouldEqual, "round-2")
				So(svc.rounds["round-2"].PrizePool, ShouldEqual, 55.0)
			})
		})

		Convey("When storing malformed JSON via PUT", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/rounds/round-3", bytes.NewBufferString("{nope"))
			mux.ServeHTTP(rec, req)

			Convey("Then it is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When verifying the round", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rounds/round-1/verify", nil))

			Convey("Then the verdict comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					RoundID  string `json:"round_id"`
					AllValid bool   `json:"all_valid"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.RoundID, ShouldEqual, "round-1")
				So(resp.AllValid, ShouldBeTrue)
			})
		})

		Convey("When triggering a payout", func() {
			payload := `{"prize_pool": 100, "force_continue": true}`
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/rounds/round-1/payouts", bytes.NewBufferString(payload))
			mux.ServeHTTP(rec, req)

			Convey("Then the job is accepted", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(rec.Body.String(), ShouldContainSubstring, `"job_id":"job-123"`)
				So(svc.lastPool, ShouldEqual, 100.0)
				So(svc.lastForce, ShouldBeTrue)
			})
		})

		Convey("When triggering a payout with an empty body", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/rounds/round-1/payouts", http.NoBody)
			mux.ServeHTTP(rec, req)

			Convey("Then defaults apply and the job is accepted", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(svc.lastPool, ShouldEqual, 0.0)
				So(svc.lastForce, ShouldBeFalse)
			})
		})

		Convey("When triggering a payout with a negative pool", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/rounds/round-1/payouts", bytes.NewBufferString(`{"prize_pool":-5}`))
			mux.ServeHTTP(rec, req)

			Convey("Then it is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a payout run is already pending", func() {
			svc.enqueueOK = false
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/rounds/round-1/payouts", bytes.NewBufferString(`{"prize_pool":10}`))
			mux.ServeHTTP(rec, req)

			Convey("Then backpressure is signalled", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(rec.Body.String(), ShouldContainSubstring, "backpressure")
			})
		})

		Convey("When using an unsupported method or path", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/rounds/round-1", nil))
			So(rec.Code, ShouldEqual, http.StatusNotFound)

			rec = httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rounds/round-1/unknown/extra", nil))
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
