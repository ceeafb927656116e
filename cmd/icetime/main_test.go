package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	app "github.com/okian/icetime/internal/app"
	"github.com/okian/icetime/internal/config"
	"github.com/okian/icetime/pkg/logger"
	"github.com/okian/icetime/pkg/metrics"
)

// writeShifts writes one regulation game of two full lineups.
func writeShifts(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("player,player_id,position,game_id,date,team,period,start,end,duration\n")
	for ti, team := range []string{"TBL", "BOS"} {
		for i := range 6 {
			pos := "C"
			if i == 0 {
				pos = "G"
			}
			for period := 1; period <= 3; period++ {
				fmt.Fprintf(&b, "p%d,%d.0,%s,20001,2018-10-04,%s,%d,0,1200,1200\n", i, 8470000+ti*10+i, pos, team, period)
			}
		}
	}
	path := filepath.Join(dir, "shifts.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestComputeCommand(t *testing.T) {
	Convey("Given a shifts CSV", t, func() {
		t.Setenv("ICETIME_CONFIG", "")
		dir := t.TempDir()
		shifts := writeShifts(t, dir)
		outDir := filepath.Join(dir, "out")

		Convey("When computing into the csv sink", func() {
			out, err := execute("compute", "--shifts", shifts, "--sink", "csv", "--output-dir", outDir, "--workers", "2")

			Convey("Then the summary is printed and both tables are written", func() {
				So(err, ShouldBeNil)
				var summary app.Summary
				So(json.Unmarshal([]byte(out), &summary), ShouldBeNil)
				So(summary.Games, ShouldEqual, 1)
				So(summary.Failed, ShouldEqual, 0)
				So(summary.Ticks.Distributed, ShouldEqual, 3600)
				So(summary.Sink, ShouldEqual, "csv")

				players, err := os.ReadFile(filepath.Join(outDir, "player_toi.csv"))
				So(err, ShouldBeNil)
				So(string(players), ShouldContainSubstring, "T.B")
				_, err = os.Stat(filepath.Join(outDir, "team_toi.csv"))
				So(err, ShouldBeNil)
			})
		})

		Convey("When the source flags are missing or mixed", func() {
			_, err := execute("compute")
			So(errors.Is(err, errSourceFlags), ShouldBeTrue)

			_, err = execute("compute", "--shifts", shifts, "--from", "2018-10-01")
			So(errors.Is(err, errSourceFlags), ShouldBeTrue)

			_, err = execute("compute", "--from", "2018-10-01")
			So(errors.Is(err, errSourceFlags), ShouldBeTrue)
		})

		Convey("When the sink is unknown", func() {
			_, err := execute("compute", "--shifts", shifts, "--sink", "parquet")
			So(err, ShouldNotBeNil)
		})

		Convey("When the config file does not exist", func() {
			_, err := execute("compute", "--shifts", shifts, "--config", filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestServe(t *testing.T) {
	Convey("Given a running server", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		g := &globals{cfg: config.New(ctx)}
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)

		done := make(chan error, 1)
		go func() { done <- serve(ctx, ln, newHandler(ctx, g)) }()

		Convey("When probing the health and openapi routes", func() {
			base := "http://" + ln.Addr().String()
			resp, err := http.Get(base + "/healthz")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			_ = resp.Body.Close()

			resp, err = http.Get(base + "/openapi.yaml")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			_ = resp.Body.Close()

			Convey("And cancelling shuts it down cleanly", func() {
				cancel()
				select {
				case err := <-done:
					So(err, ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("server did not stop")
				}
			})
		})
	})
}

func TestSystemMetricsUpdater(t *testing.T) {
	Convey("Given the system metrics updater on a short interval", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			startSystemMetricsUpdater(ctx, 5*time.Millisecond)
			close(done)
		}()
		time.Sleep(20 * time.Millisecond)

		Convey("Then the goroutine gauge is sampled", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			var goroutines float64
			for _, mf := range families {
				if mf.GetName() == "icetime_toi_system_goroutines" {
					goroutines = mf.GetMetric()[0].GetGauge().GetValue()
				}
			}
			So(goroutines, ShouldBeGreaterThan, 0)
		})

		Convey("And it stops with its context", func() {
			cancel()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
		})
		cancel()
	})
}
