package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vrproute/internal/model"
)

func TestWrite(t *testing.T) {
	sol := model.Solution{
		Trips:   []model.Trip{{Stops: []int{1, 2}}, {Stops: []int{3}}},
		Cost:    17,
		Optimal: true,
	}
	var buf bytes.Buffer
	Write(&buf, sol, 1500*time.Microsecond)
	assert.Equal(t, "Lower cost: 17\n0 -> 1 -> 2 -> 0 | 0 -> 3 -> 0\nTime taken: 1 ms\n", buf.String())
}

func TestWriteHeuristicTruncated(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, model.Solution{Trips: []model.Trip{{Stops: []int{4}}}, Cost: 3, Truncated: true}, 0)
	assert.Contains(t, buf.String(), "Cost: 3\n")
	assert.Contains(t, buf.String(), "time limit")
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	Banner(&buf, 4, 9)
	assert.Equal(t, "Starting solver for 4 cities and 9 roads...\n", buf.String())
}
