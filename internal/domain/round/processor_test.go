package round_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/charades/internal/adapters/embedder"
	"github.com/okian/charades/internal/adapters/repository"
	"github.com/okian/charades/internal/domain/commitment"
	"github.com/okian/charades/internal/domain/model"
	round "github.com/okian/charades/internal/domain/round"
	"github.com/okian/charades/internal/domain/versions"
	"github.com/okian/charades/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func honestParticipant(username, guess string) model.Participant {
	salt := commitment.GenerateSalt()
	digest, err := commitment.Commit(guess, salt)
	if err != nil {
		panic(err)
	}
	return model.Participant{
		Username:       username,
		CommitmentHash: digest,
		Guess:          guess,
		Salt:           salt,
	}
}

func newTestProcessor(store *repository.MemStore) *round.Processor {
	emb := embedder.NewInMemoryEmbedder(
		embedder.WithDimensions(64),
		embedder.WithoutLatency(),
	)
	registry := versions.New()
	verifier := commitment.NewVerifier(store)
	return round.NewProcessor(store, emb, registry, verifier)
}

func TestProcess(t *testing.T) {
	Convey("Given a stored round with honest participants", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		processor := newTestProcessor(store)

		rnd := &model.Round{
			RoundID:     "round-1",
			TargetImage: "https://img.example/sunset.jpg",
			Participants: []model.Participant{
				honestParticipant("alice", "a sunset over the city"),
				honestParticipant("bob", "birds flying at dusk"),
				honestParticipant("carol", "an orange sky above buildings"),
			},
		}
		So(store.Save(ctx, "round-1", rnd), ShouldBeNil)

		Convey("When processing with an explicit prize pool", func() {
			res, err := processor.Process(ctx, "round-1", round.Options{PrizePool: 100})

			Convey("Then every participant is scored, ranked and paid", func() {
				So(err, ShouldBeNil)
				So(res.NoValidParticipants, ShouldBeFalse)
				So(res.Ranked, ShouldHaveLength, 3)
				So(res.Payouts, ShouldHaveLength, 3)
			})

			Convey("And the pool is conserved up to stored rounding", func() {
				sum := 0.0
				for _, p := range res.Payouts {
					sum += p.Payout
				}
				So(math.Abs(sum-100), ShouldBeLessThan, 1e-4)
			})

			Convey("And payouts decrease with rank", func() {
				for i := 1; i < len(res.Payouts); i++ {
					So(res.Payouts[i].Payout, ShouldBeLessThanOrEqualTo, res.Payouts[i-1].Payout)
				}
			})

			Convey("And the outcome is persisted atomically", func() {
				stored, err := store.Get(ctx, "round-1")
				So(err, ShouldBeNil)
				So(stored.Processed(), ShouldBeTrue)
				So(*stored.TotalPayout, ShouldEqual, 100.0)
				for _, p := range stored.Participants {
					So(p.Valid, ShouldBeTrue)
					So(p.Score, ShouldNotBeNil)
					So(p.Payout, ShouldNotBeNil)
				}
			})

			Convey("And a rerun produces the same scores", func() {
				again, err := processor.Process(ctx, "round-1", round.Options{PrizePool: 100})
				So(err, ShouldBeNil)
				for i := range res.Ranked {
					So(again.Ranked[i].Username, ShouldEqual, res.Ranked[i].Username)
					So(again.Ranked[i].Score, ShouldEqual, res.Ranked[i].Score)
				}
			})
		})

		Convey("When the round carries its own prize pool", func() {
			So(store.Update(ctx, "round-1", func(r *model.Round) error {
				r.PrizePool = 60
				return nil
			}), ShouldBeNil)

			Convey("And no override is given, the stored pool is used", func() {
				res, err := processor.Process(ctx, "round-1", round.Options{})
				So(err, ShouldBeNil)
				So(res.PrizePool, ShouldEqual, 60.0)
			})

			Convey("And an override is given, the override wins", func() {
				res, err := processor.Process(ctx, "round-1", round.Options{PrizePool: 200})
				So(err, ShouldBeNil)
				So(res.PrizePool, ShouldEqual, 200.0)
			})
		})

		Convey("When no prize pool is available at all", func() {
			_, err := processor.Process(ctx, "round-1", round.Options{})

			Convey("Then the run aborts", func() {
				So(errors.Is(err, round.ErrMissingPrizePool), ShouldBeTrue)
			})
		})
	})

	Convey("Given a round with a tampered participant", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		processor := newTestProcessor(store)

		cheater := honestParticipant("mallory", "original guess")
		cheater.Guess = "a different guess after the reveal"

		rnd := &model.Round{
			RoundID:     "round-2",
			TargetImage: "https://img.example/harbor.jpg",
			Participants: []model.Participant{
				honestParticipant("alice", "boats in a harbor"),
				cheater,
			},
		}
		So(store.Save(ctx, "round-2", rnd), ShouldBeNil)

		Convey("When processing without the force flag", func() {
			_, err := processor.Process(ctx, "round-2", round.Options{PrizePool: 50})

			Convey("Then the run aborts on verification", func() {
				So(errors.Is(err, round.ErrVerificationFailed), ShouldBeTrue)
			})

			Convey("And no payout is written", func() {
				stored, err := store.Get(ctx, "round-2")
				So(err, ShouldBeNil)
				So(stored.Processed(), ShouldBeFalse)
			})

			Convey("But the verification flags are persisted", func() {
				stored, err := store.Get(ctx, "round-2")
				So(err, ShouldBeNil)
				So(stored.Participants[0].Valid, ShouldBeTrue)
				So(stored.Participants[1].Valid, ShouldBeFalse)
			})
		})

		Convey("When processing with the force flag", func() {
			res, err := processor.Process(ctx, "round-2", round.Options{PrizePool: 50, ForceContinue: true})

			Convey("Then the run completes on the valid participants only", func() {
				So(err, ShouldBeNil)
				So(res.Ranked, ShouldHaveLength, 1)
				So(res.Ranked[0].Username, ShouldEqual, "alice")
				So(res.Payouts[0].Payout, ShouldAlmostEqual, 50.0, 1e-4)
			})

			Convey("And the tampering participant gets no payout", func() {
				stored, err := store.Get(ctx, "round-2")
				So(err, ShouldBeNil)
				So(stored.Participants[1].Payout, ShouldBeNil)
				So(stored.Participants[1].Score, ShouldBeNil)
			})
		})
	})

	Convey("Given a round where nobody revealed", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		processor := newTestProcessor(store)

		rnd := &model.Round{
			RoundID:     "round-3",
			TargetImage: "https://img.example/forest.jpg",
			Participants: []model.Participant{
				{Username: "alice", CommitmentHash: "deadbeef"},
				{Username: "bob", CommitmentHash: "cafebabe"},
			},
		}
		So(store.Save(ctx, "round-3", rnd), ShouldBeNil)

		Convey("When processing with the force flag", func() {
			res, err := processor.Process(ctx, "round-3", round.Options{PrizePool: 80, ForceContinue: true})

			Convey("Then the run finishes without payouts", func() {
				So(err, ShouldBeNil)
				So(res.NoValidParticipants, ShouldBeTrue)
				So(res.Payouts, ShouldBeEmpty)
			})

			Convey("And the round stays unprocessed", func() {
				stored, err := store.Get(ctx, "round-3")
				So(err, ShouldBeNil)
				So(stored.Processed(), ShouldBeFalse)
			})
		})
	})

	Convey("Given a round with no target image", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		processor := newTestProcessor(store)

		rnd := &model.Round{
			RoundID: "round-4",
			Participants: []model.Participant{
				honestParticipant("alice", "anything"),
			},
		}
		So(store.Save(ctx, "round-4", rnd), ShouldBeNil)

		Convey("When processing", func() {
			_, err := processor.Process(ctx, "round-4", round.Options{PrizePool: 10})

			Convey("Then the run aborts", func() {
				So(errors.Is(err, round.ErrTargetImageMissing), ShouldBeTrue)
			})
		})
	})

	Convey("Given pre-verified participants and skipped verification", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		processor := newTestProcessor(store)

		rnd := &model.Round{
			RoundID:     "round-5",
			TargetImage: "https://img.example/city.jpg",
			Participants: []model.Participant{
				{Username: "alice", CommitmentHash: "x", Guess: "a city street", Valid: true},
				{Username: "bob", CommitmentHash: "y", Guess: "tall buildings", Valid: true},
			},
		}
		So(store.Save(ctx, "round-5", rnd), ShouldBeNil)

		Convey("When processing with SkipVerification", func() {
			res, err := processor.Process(ctx, "round-5", round.Options{PrizePool: 40, SkipVerification: true})

			Convey("Then the stored flags are trusted as-is", func() {
				So(err, ShouldBeNil)
				So(res.Ranked, ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given a round that does not exist", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		processor := newTestProcessor(store)

		Convey("When processing", func() {
			_, err := processor.Process(ctx, "missing", round.Options{PrizePool: 10})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestProcessAll(t *testing.T) {
	Convey("Given a mix of processable and skippable rounds", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		processor := newTestProcessor(store)

		paid := 12.0
		So(store.Save(ctx, "done", &model.Round{
			RoundID:     "done",
			TargetImage: "https://img.example/a.jpg",
			PrizePool:   12,
			Participants: []model.Participant{
				honestParticipant("alice", "something"),
			},
			TotalPayout: &paid,
		}), ShouldBeNil)

		So(store.Save(ctx, "empty", &model.Round{RoundID: "empty"}), ShouldBeNil)

		So(store.Save(ctx, "fresh", &model.Round{
			RoundID:     "fresh",
			TargetImage: "https://img.example/b.jpg",
			PrizePool:   30,
			Participants: []model.Participant{
				honestParticipant("bob", "a guess"),
				honestParticipant("carol", "another guess"),
			},
		}), ShouldBeNil)

		Convey("When processing all rounds", func() {
			results, err := processor.ProcessAll(ctx, round.Options{})

			Convey("Then only the unprocessed round with participants runs", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 1)
				So(results[0].RoundID, ShouldEqual, "fresh")
			})

			Convey("And the processed round keeps its original total", func() {
				stored, err := store.Get(ctx, "done")
				So(err, ShouldBeNil)
				So(*stored.TotalPayout, ShouldEqual, 12.0)
			})
		})
	})
}
