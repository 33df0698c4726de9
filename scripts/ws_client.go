// Package main runs a demo WebSocket client: it submits an async solve
// for a random instance and prints the run's progress stream.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// randomInstance writes a complete directed instance in the file format.
func randomInstance(n int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", n)
	for id := 1; id <= n; id++ {
		fmt.Fprintf(&b, "%d %d\n", id, 1+rng.Intn(5))
	}
	fmt.Fprintf(&b, "%d\n", n*(n+1))
	for from := 0; from <= n; from++ {
		for to := 0; to <= n; to++ {
			if from != to {
				fmt.Fprintf(&b, "%d %d %d\n", from, to, 1+rng.Intn(50))
			}
		}
	}
	return b.String()
}

func main() {
	cities := flag.Int("cities", 7, "number of cities")
	algo := flag.String("algo", "exhaustive", "exhaustive or heuristic")
	parallel := flag.Bool("parallel", true, "use the parallel solver")
	seed := flag.Int64("seed", 1, "instance seed")
	flag.Parse()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	body, _ := json.Marshal(map[string]any{
		"instanceText": randomInstance(*cities, *seed),
		"capacity":     6,
		"maxStops":     3,
		"algorithm":    *algo,
		"parallel":     *parallel,
		"async":        true,
	})
	resp, err := http.Post(base+"/v1/solve", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("solve: unexpected status %s", resp.Status)
	}
	var accepted struct {
		RunID string `json:"runId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		log.Fatal(err)
	}
	log.Printf("Run ID: %s", accepted.RunID)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/runs/" + accepted.RunID + "/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	for {
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("read: %v", err)
			}
			return
		}
		log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		if m.Type == "completed" || m.Type == "failed" {
			return
		}
	}
}
