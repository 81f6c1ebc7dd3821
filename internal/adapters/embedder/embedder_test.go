package embedder_test

import (
	"context"
	"errors"
	"math"
	"testing"

	embedder "github.com/okian/charades/internal/adapters/embedder"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryEmbedder(t *testing.T) {
	Convey("Given an embedder without simulated latency", t, func() {
		ctx := context.Background()
		emb := embedder.NewInMemoryEmbedder(
			embedder.WithDimensions(128),
			embedder.WithoutLatency(),
		)

		Convey("When embedding the same text twice", func() {
			a, err := emb.EmbedText(ctx, "a lighthouse at dusk")
			So(err, ShouldBeNil)
			b, err := emb.EmbedText(ctx, "a lighthouse at dusk")
			So(err, ShouldBeNil)

			Convey("Then the vectors are identical", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When embedding different texts", func() {
			a, err := emb.EmbedText(ctx, "first")
			So(err, ShouldBeNil)
			b, err := emb.EmbedText(ctx, "second")
			So(err, ShouldBeNil)

			Convey("Then the vectors differ", func() {
				So(a, ShouldNotResemble, b)
			})
		})

		Convey("When embedding the same string as image and text", func() {
			a, err := emb.EmbedImage(ctx, "shared-ref")
			So(err, ShouldBeNil)
			b, err := emb.EmbedText(ctx, "shared-ref")
			So(err, ShouldBeNil)

			Convey("Then the modality prefix keeps them apart", func() {
				So(a, ShouldNotResemble, b)
			})
		})

		Convey("When inspecting an embedding", func() {
			vec, err := emb.EmbedText(ctx, "check the norm")
			So(err, ShouldBeNil)

			Convey("Then it has the configured dimensionality", func() {
				So(vec, ShouldHaveLength, 128)
			})

			Convey("And it is unit-normalized", func() {
				var norm float64
				for _, v := range vec {
					norm += v * v
				}
				So(math.Sqrt(norm), ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When embedding empty input", func() {
			_, textErr := emb.EmbedText(ctx, "")
			_, imgErr := emb.EmbedImage(ctx, "")

			Convey("Then both are rejected", func() {
				So(errors.Is(textErr, embedder.ErrEmptyInput), ShouldBeTrue)
				So(errors.Is(imgErr, embedder.ErrEmptyInput), ShouldBeTrue)
			})
		})
	})

	Convey("Given an embedder with latency and a cancelled context", t, func() {
		emb := embedder.NewInMemoryEmbedder()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When embedding", func() {
			_, err := emb.EmbedText(ctx, "anything")

			Convey("Then the cancellation surfaces", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
