package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	. "github.com/smartystreets/goconvey/convey"
)

const rankingsPage = `<html><body><table>
<thead><tr><th>Rank</th><th>Player</th></tr></thead>
<tbody>
<tr><td>1</td><td>Aryna Sabalenka  BLR</td></tr>
<tr><td>2</td><td> Iga Swiatek  POL </td></tr>
<tr><td>3</td><td>Aryna Sabalenka  BLR</td></tr>
<tr><td>4</td><td>X</td></tr>
<tr><td>5</td><td></td></tr>
</tbody></table></body></html>`

const indexPage = `<html><body><table><tbody>
<tr><td class="views-field-field-lastname"> Gauff,
   Coco </td></tr>
<tr><td class="views-field-field-lastname">Swiatek, Iga</td></tr>
<tr><td class="views-field-field-lastname">Nocomma</td></tr>
</tbody></table></body></html>`

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestParse(t *testing.T) {
	Convey("Given a rankings table", t, func() {
		names := ParseRankings(doc(t, rankingsPage))

		Convey("Then the player column is read up to the double space", func() {
			So(names, ShouldResemble, []string{"aryna sabalenka", "iga swiatek", "aryna sabalenka"})
		})
	})

	Convey("Given a player index", t, func() {
		names := ParseIndex(doc(t, indexPage))

		Convey("Then Last, First cells become first last", func() {
			So(names, ShouldResemble, []string{"coco gauff", "iga swiatek"})
		})
	})
}

func TestHTTPSource(t *testing.T) {
	Convey("Given a server with both pages", t, func() {
		var agent atomic.Value
		mux := http.NewServeMux()
		mux.HandleFunc("/rankings", func(w http.ResponseWriter, r *http.Request) {
			agent.Store(r.UserAgent())
			_, _ = w.Write([]byte(rankingsPage))
		})
		mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(indexPage))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		s := NewHTTPSource(
			WithRankingsURL(srv.URL+"/rankings"),
			WithIndexURL(srv.URL+"/players"),
			WithRequestsPerSecond(1000),
		)
		names, err := s.Fetch(context.Background())

		Convey("Then names from both pages are merged without duplicates", func() {
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"aryna sabalenka", "iga swiatek", "coco gauff"})
			So(agent.Load(), ShouldEqual, DefaultUserAgent)
		})
	})

	Convey("Given a broken player index", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/rankings", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(rankingsPage))
		})
		mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusInternalServerError)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		s := NewHTTPSource(
			WithRankingsURL(srv.URL+"/rankings"),
			WithIndexURL(srv.URL+"/players"),
			WithRequestsPerSecond(1000),
		)
		names, err := s.Fetch(context.Background())

		Convey("Then the rankings alone are returned", func() {
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"aryna sabalenka", "iga swiatek"})
		})
	})

	Convey("Given a failing rankings page", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		s := NewHTTPSource(WithRankingsURL(srv.URL), WithIndexURL(""), WithRequestsPerSecond(1000))
		_, err := s.Fetch(context.Background())

		Convey("Then the status is reported", func() {
			So(errors.Is(err, ErrBadStatus), ShouldBeTrue)
		})
	})

	Convey("Given a server slower than the client timeout", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		s := NewHTTPSource(WithRankingsURL(srv.URL), WithIndexURL(""), WithTimeout(20*time.Millisecond))
		_, err := s.Fetch(context.Background())

		Convey("Then the fetch fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestStatic(t *testing.T) {
	Convey("Given a static list", t, func() {
		s := NewStatic([]string{"Serena Williams", " ", "Coco Gauff "})

		Convey("Then blanks are dropped", func() {
			names, err := s.Fetch(context.Background())
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"Serena Williams", "Coco Gauff"})
		})

		Convey("Then a cancelled context is honoured", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := s.Fetch(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
