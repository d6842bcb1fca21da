package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"matetrip-backend/internal/protocol"
	"matetrip-backend/internal/sync"
)

// 시뮬레이터: N개의 클라이언트가 한 워크스페이스에 접속해 무작위로
// 마킹/이동/재배치를 수행한 뒤, 모든 로컬 Store가 같은 상태로 수렴했는지
// 확인한다.
func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/ws/plan", "plan sync websocket base URL")
		workspace = flag.Int64("workspace", 0, "workspace ID")
		tokens    = flag.String("tokens", "", "comma-separated access tokens, one per client")
		days      = flag.String("days", "", "comma-separated plan day IDs of the workspace")
		duration  = flag.Duration("duration", 30*time.Second, "how long to generate actions")
		interval  = flag.Duration("interval", 500*time.Millisecond, "average delay between actions per client")
	)
	flag.Parse()

	if *workspace == 0 || *tokens == "" {
		log.Fatal("usage: simulate -workspace <id> -tokens <t1,t2,...> [-days <d1,d2,...>]")
	}

	tokenList := strings.Split(*tokens, ",")
	dayIDs := parseDayIDs(*days)

	wsURL := fmt.Sprintf("%s/%d", *url, *workspace)

	clients := make([]*simClient, len(tokenList))
	for i, token := range tokenList {
		c, err := newSimClient(i, wsURL, strings.TrimSpace(token), *workspace, dayIDs)
		if err != nil {
			log.Fatalf("client %d failed to join: %v", i, err)
		}
		clients[i] = c
	}
	log.Printf("[Simulate] %d clients joined workspace %d", len(clients), *workspace)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	for _, c := range clients {
		go c.run(ctx, *interval)
	}
	<-ctx.Done()

	// 남은 브로드캐스트가 다 돌 때까지 잠시 대기
	time.Sleep(3 * time.Second)

	for _, c := range clients {
		c.channel.Leave()
	}

	if checkConvergence(clients) {
		log.Printf("[Simulate] ✅ all %d stores converged on membership (%d pois)", len(clients), clients[0].store.Len())
	} else {
		log.Fatalf("[Simulate] ❌ stores diverged")
	}
}

func parseDayIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			log.Fatalf("invalid day id %q", p)
		}
		ids = append(ids, id)
	}
	return ids
}

// simClient 시뮬레이션 클라이언트 하나 (Store + Channel + Planner)
type simClient struct {
	id      int
	store   *sync.Store
	channel *sync.Channel
	planner *sync.Planner
	dayIDs  []int64
	rng     *rand.Rand
}

func newSimClient(id int, wsURL, token string, workspaceID int64, dayIDs []int64) (*simClient, error) {
	store := sync.NewStore(workspaceID)
	channel := sync.NewChannel(wsURL, token, workspaceID, store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := channel.Join(ctx); err != nil {
		return nil, err
	}

	return &simClient{
		id:      id,
		store:   store,
		channel: channel,
		planner: sync.NewPlanner(store, channel),
		dayIDs:  dayIDs,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))),
	}, nil
}

func (c *simClient) run(ctx context.Context, interval time.Duration) {
	for {
		// 평균 interval 주변의 지터
		delay := interval/2 + time.Duration(c.rng.Int63n(int64(interval)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		switch c.rng.Intn(10) {
		case 0, 1, 2:
			c.mark()
		case 3:
			c.unmark()
		default:
			c.drop()
		}
	}
}

// mark 서울 시청 주변의 무작위 좌표에 POI 생성
func (c *simClient) mark() {
	payload := protocol.MarkPayload{
		Latitude:  37.5665 + c.rng.Float64()*0.05,
		Longitude: 126.9780 + c.rng.Float64()*0.05,
		Address:   fmt.Sprintf("sim-addr-%d-%d", c.id, c.rng.Intn(1000)),
		PlaceName: fmt.Sprintf("sim-place-%d", c.rng.Intn(1000)),
	}
	if err := c.channel.SendIntent(protocol.IntentMark, payload); err != nil {
		log.Printf("[Simulate] client %d mark failed: %v", c.id, err)
	}
}

func (c *simClient) unmark() {
	poi, ok := c.randomPoi()
	if !ok {
		return
	}
	c.store.ApplyRemoval(poi.ID)
	payload := protocol.UnmarkPayload{WorkspaceID: c.store.WorkspaceID(), PoiID: poi.ID}
	if err := c.channel.SendIntent(protocol.IntentUnmark, payload); err != nil {
		log.Printf("[Simulate] client %d unmark failed: %v", c.id, err)
	}
}

// drop 무작위 POI를 무작위 파티션의 무작위 위치로 끌어다 놓는다
func (c *simClient) drop() {
	poi, ok := c.randomPoi()
	if !ok {
		return
	}

	target := protocol.PoolKey()
	if len(c.dayIDs) > 0 && c.rng.Intn(3) > 0 {
		target = protocol.DayKey(c.dayIDs[c.rng.Intn(len(c.dayIDs))])
	}

	targetIndex := -1 // 끝에 추가
	if n := len(c.store.PartitionOrder(target)); n > 0 && c.rng.Intn(2) == 0 {
		targetIndex = c.rng.Intn(n)
	}

	c.planner.HandleDrop(sync.DropEvent{
		PoiID:           poi.ID,
		SourceContainer: poi.Partition().ContainerID(),
		TargetContainer: target.ContainerID(),
		TargetIndex:     targetIndex,
	})
}

func (c *simClient) randomPoi() (protocol.Poi, bool) {
	pois := c.store.Snapshot()
	if len(pois) == 0 {
		return protocol.Poi{}, false
	}
	return pois[c.rng.Intn(len(pois))], true
}

// checkConvergence 모든 Store가 브로드캐스트로 전달되는 상태로 수렴했는지
// 비교한다. 비교 대상은 멤버십(ID/Status/PlanDayID)뿐이다: 풀 순서는 로컬
// 표시 상태이고, scheduleAdded/Removed 이벤트에는 sequence가 없어 비조작
// 클라이언트의 sequence는 reordered나 sync가 올 때까지 갈라지는 것이 정상이다.
func checkConvergence(clients []*simClient) bool {
	base := clients[0].store.Snapshot()
	for _, c := range clients[1:] {
		other := c.store.Snapshot()
		if len(other) != len(base) {
			log.Printf("[Simulate] size mismatch: client 0 has %d, client %d has %d",
				len(base), c.id, len(other))
			return false
		}
		for i := range base {
			if !samePoi(base[i], other[i]) {
				log.Printf("[Simulate] poi mismatch at %d: client 0 %+v, client %d %+v",
					i, base[i], c.id, other[i])
				return false
			}
		}
	}
	return true
}

func samePoi(a, b protocol.Poi) bool {
	if a.ID != b.ID || a.Status != b.Status {
		return false
	}
	if (a.PlanDayID == nil) != (b.PlanDayID == nil) {
		return false
	}
	if a.PlanDayID != nil && *a.PlanDayID != *b.PlanDayID {
		return false
	}
	return true
}
