// Command loadtest hammers one room with concurrent "aq" commands over
// WebSocket and reports the room's quote count afterwards. With no lost
// updates the count grows by exactly clients*quotes.
package main

import (
	"flag"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devaloi/quoteboard/internal/domain"
	"github.com/devaloi/quoteboard/internal/logging"
)

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	clients := flag.Int("clients", 10, "Number of concurrent clients")
	room := flag.String("room", "loadtest", "Room to add quotes to")
	quotes := flag.Int("quotes", 10, "Quotes added per client")
	flag.Parse()

	logger := logging.L()
	logger.Info().Int("clients", *clients).Int("quotes", *quotes).Str("room", *room).Msg("load test")

	var (
		connected int64
		sent      int64
		errors    int64
		latencies []time.Duration
		latencyMu sync.Mutex
		wg        sync.WaitGroup
	)

	start := time.Now()

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			user := fmt.Sprintf("user_%d", id)
			conn, _, err := websocket.DefaultDialer.Dial(*serverURL+"?user="+url.QueryEscape(user), nil)
			if err != nil {
				atomic.AddInt64(&errors, 1)
				logger.Warn().Err(err).Int("client", id).Msg("dial")
				return
			}
			defer conn.Close()
			atomic.AddInt64(&connected, 1)

			go func() {
				for {
					_, data, err := conn.ReadMessage()
					if err != nil {
						return
					}
					msg, err := domain.DecodeMessage(data)
					if err == nil && msg.Type == domain.MsgError {
						atomic.AddInt64(&errors, 1)
					}
				}
			}()

			join, _ := domain.Encode(domain.Message{Type: domain.MsgJoin, Room: *room})
			conn.WriteMessage(websocket.TextMessage, join)
			time.Sleep(100 * time.Millisecond)

			for j := 0; j < *quotes; j++ {
				sendTime := time.Now()
				text := fmt.Sprintf("aq quote %d from %s", j, user)
				chat, _ := domain.Encode(domain.Message{Type: domain.MsgChat, Room: *room, Text: text})
				if err := conn.WriteMessage(websocket.TextMessage, chat); err != nil {
					atomic.AddInt64(&errors, 1)
					return
				}
				atomic.AddInt64(&sent, 1)
				latencyMu.Lock()
				latencies = append(latencies, time.Since(sendTime))
				latencyMu.Unlock()
				time.Sleep(10 * time.Millisecond)
			}

			time.Sleep(500 * time.Millisecond)
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	final, err := countQuotes(*serverURL, *room)
	if err != nil {
		logger.Warn().Err(err).Msg("final count")
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Clients:     %d connected\n", connected)
	fmt.Printf("Sent:        %d aq commands\n", sent)
	fmt.Printf("Errors:      %d\n", errors)
	if final >= 0 {
		fmt.Printf("Room count:  %d quotes\n", final)
	}
	if len(latencies) > 0 {
		fmt.Printf("Latency p50: %s\n", percentile(latencies, 50))
		fmt.Printf("Latency p95: %s\n", percentile(latencies, 95))
		fmt.Printf("Latency p99: %s\n", percentile(latencies, 99))
	}
	fmt.Printf("Throughput:  %.0f cmds/sec\n", float64(sent)/elapsed.Seconds())
}

// countQuotes asks the bot for a random quote and reads the total from the
// "[i/N]" prefix of its reply. It returns -1 when no count could be read.
func countQuotes(serverURL, room string) (int, error) {
	conn, _, err := websocket.DefaultDialer.Dial(serverURL+"?user=counter", nil)
	if err != nil {
		return -1, err
	}
	defer conn.Close()

	join, _ := domain.Encode(domain.Message{Type: domain.MsgJoin, Room: room})
	conn.WriteMessage(websocket.TextMessage, join)
	time.Sleep(100 * time.Millisecond)
	get, _ := domain.Encode(domain.Message{Type: domain.MsgChat, Room: room, Text: "q"})
	conn.WriteMessage(websocket.TextMessage, get)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return -1, err
		}
		msg, err := domain.DecodeMessage(data)
		if err != nil || msg.Type != domain.MsgSystem {
			continue
		}
		var i, n int
		if _, err := fmt.Sscanf(strings.SplitN(msg.Text, "]", 2)[0], "[%d/%d", &i, &n); err != nil {
			return -1, fmt.Errorf("unexpected reply %q", msg.Text)
		}
		return n, nil
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
