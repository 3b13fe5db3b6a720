package profile

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_ReportScenario(t *testing.T) {
	cat := NewCategory("category-A", WithClock(FixedClock(1000, 1300)))

	cat.Start("parse").Record("/a/b/foo.js")
	cat.Stop().Record("/a/b/foo.js")

	report := cat.Report()
	require.Contains(t, report, "/a/b/foo.js")
	assert.Equal(t, map[string]float64{"parse": 0.3, "total": 0.3}, report["/a/b/foo.js"].Map())
}

func TestCategory_ReportIsIdempotent(t *testing.T) {
	cat := NewCategory("x", WithClock(FixedClock(0, 1000, 1500, 0, 700)))
	cat.Start("A").Record("one")
	cat.Start("B").Record("one")
	cat.Stop().Record("one")
	cat.Start("A").Record("two")
	cat.Stop().Record("two")

	first := cat.Report()
	second := cat.Report()
	assert.Equal(t, first, second)
	assert.Equal(t, cat.String(), cat.String())
}

func TestCategory_UnusedRendersEmpty(t *testing.T) {
	cat := NewCategory("idle")
	assert.False(t, cat.Used())
	assert.Equal(t, "", cat.String())
	assert.Empty(t, cat.Report())
}

func TestCategory_StopMarksUsed(t *testing.T) {
	cat := NewCategory("stops")
	cat.Stop().Record("a.js")

	assert.True(t, cat.Used())
	out := cat.String()
	assert.Contains(t, out, "a.js")
	assert.Contains(t, out, " 00.000")
}

func TestCategory_Exclusion(t *testing.T) {
	clock := FixedClock(0, 1000, 0, 9000, 0, 500)
	cat := NewCategory("ex", WithClock(clock), WithExcludePattern(regexp.MustCompile(`node_modules`)))

	cat.Start("parse").Record("src/a.js")
	cat.Stop().Record("src/a.js")
	cat.Start("vendor").Record("node_modules/lib.js")
	cat.Stop().Record("node_modules/lib.js")
	cat.Start("emit").Record("src/b.js")
	cat.Stop().Record("src/b.js")

	report := cat.Report()
	assert.NotContains(t, report, "node_modules/lib.js")
	assert.Len(t, report, 2)

	out := cat.String()
	assert.NotContains(t, out, "node_modules")
	assert.NotContains(t, out, "vendor")

	header := strings.Split(out, "\n")[1]
	assert.Less(t, strings.Index(header, "parse"), strings.Index(header, "emit"))

	assert.Equal(t, []string{"src/a.js", "node_modules/lib.js", "src/b.js"}, cat.Entities())
	assert.True(t, cat.Excluded("node_modules/lib.js"))
}

func TestCategory_DisplayName(t *testing.T) {
	cat := NewCategory("d",
		WithClock(FixedClock(0, 100)),
		WithDisplayName(func(id string) string { return strings.TrimPrefix(id, "/repo/") }),
	)
	cat.Start("k").Record("/repo/main.js")
	cat.Stop().Record("/repo/main.js")

	assert.Contains(t, cat.Report(), "/repo/main.js")
	assert.Contains(t, cat.String(), "\nmain.js ")
}

func TestHandle(t *testing.T) {
	cat := NewCategory("h", WithClock(FixedClock(5, 10)))

	s := cat.Start("parse")
	assert.Equal(t, "parse", s.Key())
	assert.False(t, s.IsStop())
	assert.True(t, cat.Stop().IsStop())

	acked := false
	s.RecordAsync("f", func() { acked = true })
	assert.True(t, acked)
	cat.Stop().RecordAsync("f", nil)

	assert.Equal(t, []Marker{{At: 5, Key: "parse"}, {At: 10, Stop: true}}, cat.Markers("f"))

	var zero Handle
	assert.NotPanics(t, func() { zero.Record("f") })
}

func TestCategory_ConcurrentRecording(t *testing.T) {
	cat := NewCategory("c")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cat.Start("k").Record(id)
				cat.Stop().Record(id)
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()

	assert.Len(t, cat.Report(), 16)
	for _, id := range cat.Entities() {
		assert.Len(t, cat.Markers(id), 100)
	}
}
