package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const testRules = `{"3": {"ranges": [[1, 20]], "impact": [7, 12]}}`

const testRoster = `TGID,PPOS,POVR,PJEN,PFNA,PLNA
7,3,50,99,Al,One
7,3,90,0,Bo,Two
7,3,70,5,Cy,Three
`

func setupDirs(t *testing.T) (input, output, logic string) {
	t.Helper()
	root := t.TempDir()
	input = filepath.Join(root, "input")
	output = filepath.Join(root, "output")
	logic = filepath.Join(root, "logic")
	for _, d := range []string{input, logic} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(input, "roster.csv"), []byte(testRoster), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(logic, "jersey_numbers.json"), []byte(testRules), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ROSTERFIX_INPUT_DIR", input)
	t.Setenv("ROSTERFIX_OUTPUT_DIR", output)
	t.Setenv("ROSTERFIX_LOGIC_DIR", logic)
	t.Setenv("ROSTERFIX_SEED", "3")
	t.Setenv("ROSTERFIX_METRICS_TEXTFILE", filepath.Join(root, "rosterfix.prom"))
	return input, output, logic
}

func TestRun(t *testing.T) {
	convey.Convey("Given the command line", t, func() {
		ctx := context.Background()
		var stdout, stderr bytes.Buffer

		convey.Convey("When asking for help", func() {
			code := run(ctx, []string{"-help"}, &stdout, &stderr)

			convey.Convey("Then usage is printed", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "-input")
				convey.So(stderr.String(), convey.ShouldContainSubstring, "ROSTERFIX_CONFIG")
			})
		})

		convey.Convey("When an unknown flag is given", func() {
			code := run(ctx, []string{"-bogus"}, &stdout, &stderr)

			convey.Convey("Then it is a usage error", func() {
				convey.So(code, convey.ShouldEqual, exitUsage)
			})
		})

		convey.Convey("When processing a roster", func() {
			_, output, _ := setupDirs(t)

			code := run(ctx, nil, &stdout, &stderr)

			convey.Convey("Then the roster and audit are written and reported", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				entries, err := os.ReadDir(output)
				convey.So(err, convey.ShouldBeNil)
				convey.So(entries, convey.ShouldHaveLength, 2)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Saved:")
				convey.So(stdout.String(), convey.ShouldContainSubstring, "3 rows, 1 teams, 0 forced duplicates, 0 unassigned")
			})

			convey.Convey("Then the metrics textfile is written", func() {
				data, err := os.ReadFile(os.Getenv("ROSTERFIX_METRICS_TEXTFILE"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "rosterfix_run_rows_processed_total")
			})
		})

		convey.Convey("When checking a roster", func() {
			input, _, _ := setupDirs(t)

			code := run(ctx, []string{"-check", "-input", filepath.Join(input, "roster.csv")}, &stdout, &stderr)

			convey.Convey("Then the problems are reported and nothing is written", func() {
				convey.So(code, convey.ShouldEqual, exitDirty)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "3 players, 1 out of range, 0 duplicates, 1 unassigned")
			})
		})

		convey.Convey("When the rules are missing", func() {
			_, _, logic := setupDirs(t)
			convey.So(os.Remove(filepath.Join(logic, "jersey_numbers.json")), convey.ShouldBeNil)

			code := run(ctx, nil, &stdout, &stderr)

			convey.Convey("Then the run fails", func() {
				convey.So(code, convey.ShouldEqual, exitFailure)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "rule file not found")
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("ROSTERFIX_WORKER_COUNT", "many")

			code := run(ctx, nil, &stdout, &stderr)

			convey.Convey("Then the run fails", func() {
				convey.So(code, convey.ShouldEqual, exitFailure)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "failed to load config")
			})
		})
	})
}
