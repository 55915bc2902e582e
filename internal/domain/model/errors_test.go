package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorKinds(t *testing.T) {
	Convey("Given wrapped errors", t, func() {
		cause := errors.New("dial tcp: timeout")

		Convey("When wrapped with a kind", func() {
			err := WrapKind("roster.fetch", ErrSourceFetch, cause)

			Convey("Then both the kind and the cause match", func() {
				So(errors.Is(err, ErrSourceFetch), ShouldBeTrue)
				So(errors.Is(err, cause), ShouldBeTrue)
				So(errors.Is(err, ErrValidation), ShouldBeFalse)
				So(err.Error(), ShouldEqual, "roster.fetch: source fetch failed: dial tcp: timeout")
			})

			Convey("And rewrapping keeps the kind", func() {
				outer := fmt.Errorf("refresh: %w", Wrap("authority", err))
				So(errors.Is(outer, ErrSourceFetch), ShouldBeTrue)
			})
		})

		Convey("When the cause is nil", func() {
			So(WrapKind("op", ErrPersistence, nil), ShouldBeNil)
			So(Wrap("op", nil), ShouldBeNil)
		})

		Convey("When a kind is raised without a cause", func() {
			err := NewKind("service.bulk", ErrValidation)
			So(errors.Is(err, ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "service.bulk: validation error")
			So(Message(err), ShouldEqual, "validation error")
		})

		Convey("When a validation message is built", func() {
			err := Validation("service.bulk", "Maximum 50 players allowed per request")
			So(errors.Is(err, ErrValidation), ShouldBeTrue)
			So(Message(Wrap("api", err)), ShouldEqual, "Maximum 50 players allowed per request")
		})
	})
}

func TestVerdictWireFormat(t *testing.T) {
	Convey("Given a player verdict", t, func() {
		pv := PlayerVerdict{
			Name: "Serena Williams",
			Verdict: Verdict{
				IsEligible: true,
				Confidence: 0.85,
				Reason:     "Gender inference: female (lexicon)",
				Details: Details{
					Source:          SourceInference,
					GenderDetection: &InferenceResult{Gender: GenderFemale, Confidence: 0.85, Source: "lexicon"},
				},
			},
		}

		Convey("Then the embedded verdict is flattened and details use wire names", func() {
			raw, err := json.Marshal(pv)
			So(err, ShouldBeNil)
			var m map[string]any
			So(json.Unmarshal(raw, &m), ShouldBeNil)
			So(m["name"], ShouldEqual, "Serena Williams")
			So(m["isEligible"], ShouldEqual, true)
			details := m["details"].(map[string]any)
			So(details["genderDetection"].(map[string]any)["gender"], ShouldEqual, "female")
			So(details, ShouldNotContainKey, "manualOverride")
		})
	})
}
