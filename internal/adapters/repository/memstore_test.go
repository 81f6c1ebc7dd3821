package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	repository "github.com/okian/charades/internal/adapters/repository"
	"github.com/okian/charades/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStore(t *testing.T) {
	Convey("Given an empty in-memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()

		Convey("When getting a missing round", func() {
			_, err := store.Get(ctx, "missing")

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrRoundNotFound), ShouldBeTrue)
			})
		})

		Convey("When saving a nil round", func() {
			err := store.Save(ctx, "nil", nil)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrNilRound), ShouldBeTrue)
			})
		})

		Convey("When saving and reading back a round", func() {
			rnd := &model.Round{
				RoundID:   "round-1",
				PrizePool: 100,
				Participants: []model.Participant{
					{Username: "alice", CommitmentHash: "abc"},
				},
			}
			So(store.Save(ctx, "round-1", rnd), ShouldBeNil)

			got, err := store.Get(ctx, "round-1")

			Convey("Then the stored record matches", func() {
				So(err, ShouldBeNil)
				So(got.RoundID, ShouldEqual, "round-1")
				So(got.PrizePool, ShouldEqual, 100.0)
				So(got.Participants, ShouldHaveLength, 1)
			})

			Convey("And mutating the returned copy does not leak into the store", func() {
				got.Participants[0].Username = "mallory"
				again, err := store.Get(ctx, "round-1")
				So(err, ShouldBeNil)
				So(again.Participants[0].Username, ShouldEqual, "alice")
			})

			Convey("And mutating the saved input does not leak either", func() {
				rnd.PrizePool = 0
				again, err := store.Get(ctx, "round-1")
				So(err, ShouldBeNil)
				So(again.PrizePool, ShouldEqual, 100.0)
			})
		})

		Convey("When updating a round", func() {
			So(store.Save(ctx, "round-1", &model.Round{RoundID: "round-1"}), ShouldBeNil)

			err := store.Update(ctx, "round-1", func(r *model.Round) error {
				r.PrizePool = 42
				return nil
			})

			Convey("Then the mutation is persisted", func() {
				So(err, ShouldBeNil)
				got, err := store.Get(ctx, "round-1")
				So(err, ShouldBeNil)
				So(got.PrizePool, ShouldEqual, 42.0)
			})
		})

		Convey("When an update callback fails", func() {
			So(store.Save(ctx, "round-1", &model.Round{RoundID: "round-1", PrizePool: 7}), ShouldBeNil)

			sentinel := errors.New("boom")
			err := store.Update(ctx, "round-1", func(r *model.Round) error {
				r.PrizePool = 99
				return sentinel
			})

			Convey("Then the error propagates and nothing is written", func() {
				So(errors.Is(err, sentinel), ShouldBeTrue)
				got, err := store.Get(ctx, "round-1")
				So(err, ShouldBeNil)
				So(got.PrizePool, ShouldEqual, 7.0)
			})
		})

		Convey("When updating a missing round", func() {
			err := store.Update(ctx, "missing", func(r *model.Round) error { return nil })
			So(errors.Is(err, repository.ErrRoundNotFound), ShouldBeTrue)
		})

		Convey("When listing rounds", func() {
			So(store.Save(ctx, "b", &model.Round{RoundID: "b"}), ShouldBeNil)
			So(store.Save(ctx, "a", &model.Round{RoundID: "a"}), ShouldBeNil)
			So(store.Save(ctx, "c", &model.Round{RoundID: "c"}), ShouldBeNil)

			ids, err := store.List(ctx)

			Convey("Then IDs come back sorted", func() {
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []string{"a", "b", "c"})
				So(store.Count(ctx), ShouldEqual, 3)
			})
		})

		Convey("When updating the same round concurrently", func() {
			So(store.Save(ctx, "counter", &model.Round{RoundID: "counter"}), ShouldBeNil)

			const writers = 16
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = store.Update(ctx, "counter", func(r *model.Round) error {
						r.PrizePool++
						return nil
					})
				}()
			}
			wg.Wait()

			Convey("Then no increment is lost", func() {
				got, err := store.Get(ctx, "counter")
				So(err, ShouldBeNil)
				So(got.PrizePool, ShouldEqual, float64(writers))
			})
		})
	})
}
