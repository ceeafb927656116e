package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/icetime/internal/app"
	"github.com/okian/icetime/internal/domain/strength"
	"github.com/okian/icetime/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type failingComputer struct{ err error }

func (f failingComputer) Compute(context.Context, service.Batch) (*service.Report, error) {
	return nil, f.err
}

type staticStats map[string]interface{}

func (s staticStats) GetStats() map[string]interface{} { return s }

// shiftsJSON dresses a goalie and five skaters per team for all of regulation.
func shiftsJSON(gameID int, teams ...string) string {
	var parts []string
	for t, team := range teams {
		for i := range 6 {
			pos := "C"
			if i == 0 {
				pos = "G"
			}
			for period := 1; period <= 3; period++ {
				parts = append(parts, fmt.Sprintf(
					`{"player":"p%d","player_id":%d,"position":%q,"game_id":%d,"date":"2019-10-05","team":%q,"period":%d,"start":0,"end":1200}`,
					i, 1000+t*100+i, pos, gameID, team, period))
			}
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func newMux(c Computer, opts ...Option) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(c, staticStats{"runs": 0}, opts...).Register(context.Background(), mux)
	return mux
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(service.New(service.WithWorkerCount(1)))

		Convey("When probing /healthz", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

			Convey("Then it reports ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When reading /stats", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))

			Convey("Then the provider's map is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["runs"], ShouldEqual, float64(0))
			})
		})

		Convey("When scraping /metrics after a request", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			w = httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

			Convey("Then the HTTP counters are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "icetime_toi_http_requests_total")
			})
		})
	})
}

func TestHandleCompute(t *testing.T) {
	Convey("Given a server backed by a real service", t, func() {
		mux := newMux(service.New(service.WithWorkerCount(2)))
		post := func(body string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/toi", strings.NewReader(body)))
			return w
		}

		Convey("When posting a bare array of shifts", func() {
			w := post(shiftsJSON(20001, "BOS", "TOR"))

			Convey("Then every bucket is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp toiResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.RunID, ShouldNotBeEmpty)
				So(len(resp.Teams), ShouldEqual, 2*strength.Count*2)
				So(len(resp.Players), ShouldEqual, 12*strength.Count*2)
				So(resp.Summary.Ticks.Distributed, ShouldEqual, 3600)
				So(resp.Failures, ShouldBeEmpty)
			})
		})

		Convey("When posting an object with lengths and a bad row", func() {
			shifts := strings.TrimSuffix(shiftsJSON(20001, "BOS", "TOR"), "]") +
				`,{"player_id":5,"game_id":20001,"team":"BOS","period":1,"start":90,"end":10}]`
			w := post(`{"shifts":` + shifts + `,"lengths":{"20001":{"period":4,"end":59}}}`)

			Convey("Then the length is honoured and the row rejected", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp toiResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Summary.Ticks.Total, ShouldEqual, 3*1201+60)
				So(len(resp.Rejected), ShouldEqual, 1)
				So(resp.Rejected[0].Shift.PlayerID, ShouldEqual, int64(5))
				So(resp.Rejected[0].Reason, ShouldContainSubstring, "starts after it ends")
			})
		})

		Convey("When posting a length far past the game clock", func() {
			w := post(`{"shifts":` + shiftsJSON(30001, "BOS", "TOR") + `,"lengths":{"30001":{"period":900000,"end":10}}}`)

			Convey("Then the game fails without taking the server down", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp toiResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(len(resp.Failures), ShouldEqual, 1)
				So(resp.Failures[0].GameID, ShouldEqual, 30001)
				So(resp.Failures[0].Error, ShouldContainSubstring, "invalid game length")
			})
		})

		Convey("When posting a single-team game", func() {
			w := post(shiftsJSON(20002, "NSH"))

			Convey("Then the failure is reported per game", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp toiResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(len(resp.Failures), ShouldEqual, 1)
				So(resp.Failures[0].GameID, ShouldEqual, 20002)
				So(resp.Players, ShouldBeEmpty)
			})
		})

		Convey("When posting malformed input", func() {
			So(post(`{"shifts":`).Code, ShouldEqual, http.StatusBadRequest)
			So(post(`[]`).Code, ShouldEqual, http.StatusBadRequest)
			So(post(`{"shifts":[{"player_id":"x"}]}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using the wrong method", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/toi", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a small body limit", t, func() {
		mux := newMux(service.New(), WithMaxBodyBytes(64))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/toi", strings.NewReader(shiftsJSON(20001, "BOS", "TOR"))))

		Convey("Then oversized bodies are refused", func() {
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})
	})

	Convey("Given a computer that fails", t, func() {
		mux := newMux(failingComputer{err: errors.New("boom")})
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/toi", strings.NewReader(shiftsJSON(20001, "BOS", "TOR"))))

		Convey("Then a 500 carries the message", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "boom")
		})
	})
}
