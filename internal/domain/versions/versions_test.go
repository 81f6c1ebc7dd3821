package versions_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/charades/internal/domain/scoring"
	versions "github.com/okian/charades/internal/domain/versions"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistryResolve(t *testing.T) {
	Convey("Given a registry with two versions", t, func() {
		registry := versions.New(
			versions.Entry{
				VersionID:             "1.0",
				AppliedToRounds:       []string{"round-1", "round-2"},
				UseBaselineAdjustment: false,
			},
			versions.Entry{
				VersionID:             "2.0",
				AppliedToRounds:       []string{"round-3"},
				UseBaselineAdjustment: true,
			},
		)

		Convey("When resolving registered rounds", func() {
			Convey("Then each round gets its bound variant", func() {
				So(registry.Resolve("round-1"), ShouldEqual, scoring.RawSimilarity)
				So(registry.Resolve("round-2"), ShouldEqual, scoring.RawSimilarity)
				So(registry.Resolve("round-3"), ShouldEqual, scoring.BaselineAdjusted)
			})
		})

		Convey("When resolving an unregistered round", func() {
			Convey("Then the current default applies", func() {
				So(registry.Resolve("round-99"), ShouldEqual, scoring.BaselineAdjusted)
			})
		})

		Convey("When listing entries", func() {
			entries := registry.Entries()

			Convey("Then construction order is preserved", func() {
				So(entries, ShouldHaveLength, 2)
				So(entries[0].VersionID, ShouldEqual, "1.0")
				So(entries[1].VersionID, ShouldEqual, "2.0")
			})
		})
	})

	Convey("Given two versions claiming the same round", t, func() {
		registry := versions.New(
			versions.Entry{VersionID: "1.0", AppliedToRounds: []string{"round-1"}, UseBaselineAdjustment: false},
			versions.Entry{VersionID: "2.0", AppliedToRounds: []string{"round-1"}, UseBaselineAdjustment: true},
		)

		Convey("When resolving the contested round", func() {
			Convey("Then the first registered version wins", func() {
				So(registry.Resolve("round-1"), ShouldEqual, scoring.RawSimilarity)
			})
		})
	})

	Convey("Given an empty registry", t, func() {
		registry := versions.New()

		Convey("Then every round resolves to the default", func() {
			So(registry.Resolve("any"), ShouldEqual, scoring.BaselineAdjusted)
			So(registry.Entries(), ShouldBeEmpty)
		})
	})
}

func TestEntryVariant(t *testing.T) {
	Convey("Given version entries", t, func() {
		Convey("Then the parameter flag maps to the variant", func() {
			So(versions.Entry{UseBaselineAdjustment: true}.Variant(), ShouldEqual, scoring.BaselineAdjusted)
			So(versions.Entry{UseBaselineAdjustment: false}.Variant(), ShouldEqual, scoring.RawSimilarity)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a registry file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "scoring_versions.json")
		content := `{
  "versions": {
    "2.0": {
      "applied_to_rounds": ["round-b"],
      "parameters": {"use_baseline_adjustment": true}
    },
    "1.0": {
      "applied_to_rounds": ["round-a", "round-b"],
      "parameters": {"use_baseline_adjustment": false}
    }
  }
}`
		So(os.WriteFile(path, []byte(content), 0600), ShouldBeNil)

		Convey("When loading", func() {
			registry, err := versions.Load(path)
			So(err, ShouldBeNil)

			Convey("Then version IDs are ordered deterministically", func() {
				entries := registry.Entries()
				So(entries, ShouldHaveLength, 2)
				So(entries[0].VersionID, ShouldEqual, "1.0")
				So(entries[1].VersionID, ShouldEqual, "2.0")
			})

			Convey("And a round claimed by both versions resolves to the lowest ID", func() {
				So(registry.Resolve("round-b"), ShouldEqual, scoring.RawSimilarity)
				So(registry.Resolve("round-a"), ShouldEqual, scoring.RawSimilarity)
			})
		})
	})

	Convey("Given a missing file", t, func() {
		Convey("When loading", func() {
			_, err := versions.Load(filepath.Join(t.TempDir(), "nope.json"))

			Convey("Then a load error is reported", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, versions.ErrLoadRegistry.Error())
			})
		})
	})

	Convey("Given malformed JSON", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.json")
		So(os.WriteFile(path, []byte("{not json"), 0600), ShouldBeNil)

		Convey("When loading", func() {
			_, err := versions.Load(path)
			So(err, ShouldNotBeNil)
		})
	})
}
